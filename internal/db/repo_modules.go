package db

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListModules returns all active/beta modules with their tools.
func ListModules(db *gorm.DB) ([]Module, error) {
	var modules []Module
	if err := db.Where("status IN ('active', 'beta')").
		Order("name").
		Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// SyncModuleEntry is the input for SyncModules.
type SyncModuleEntry struct {
	Name   string      `json:"name"`
	Status string      `json:"status"`
	Tools  interface{} `json:"tools"`
}

// SyncModules upserts module+tool data at server startup.
func SyncModules(db *gorm.DB, entries []SyncModuleEntry) (int, error) {
	upserted := 0
	for _, e := range entries {
		toolsJSON, err := json.Marshal(e.Tools)
		if err != nil {
			return upserted, fmt.Errorf("failed to marshal tools for %s: %w", e.Name, err)
		}

		mod := Module{
			Name:   e.Name,
			Status: e.Status,
			Tools:  JSONB(toolsJSON),
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "tools"}),
		}).Create(&mod)

		if result.Error != nil {
			return upserted, fmt.Errorf("failed to sync module %s: %w", e.Name, result.Error)
		}
		upserted++
	}
	return upserted, nil
}
