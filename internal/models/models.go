// Package models declares the persisted records and their column references.
package models

import "github.com/eleven-am/tasks/internal/orm"

// Tables returns the metadata of every model
func Tables() ([]*orm.ModelMetadata, error) {
	user, err := orm.MetadataFor[User]()
	if err != nil {
		return nil, err
	}
	task, err := orm.MetadataFor[Task]()
	if err != nil {
		return nil, err
	}
	return []*orm.ModelMetadata{user, task}, nil
}
