package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// FindOrCreateByClerkID resolves a Clerk identity to the internal user UUID,
// creating the user row on first sight.
func FindOrCreateByClerkID(database *gorm.DB, clerkID, email string) (string, error) {
	var user User
	err := database.Where("clerk_id = ?", clerkID).First(&user).Error
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	user = User{ClerkID: &clerkID}
	if email != "" {
		user.Email = &email
	}
	if err := database.Create(&user).Error; err != nil {
		// Concurrent first-request race: another instance may have created the row.
		var existing User
		if ferr := database.Where("clerk_id = ?", clerkID).First(&existing).Error; ferr == nil {
			return existing.ID, nil
		}
		return "", fmt.Errorf("failed to create user for clerk_id %s: %w", clerkID, err)
	}
	return user.ID, nil
}

// MCPContext is everything the request path needs to authorize a user:
// account standing, plan limits, today's usage, and the tool whitelist.
type MCPContext struct {
	AccountStatus  string
	PlanID         string
	DailyUsed      int
	DailyLimit     int
	EnabledModules []string
	EnabledTools   map[string][]string
}

// GetMCPContext assembles the per-request authorization context.
// EnabledModules is derived from the EnabledTools keys: a module with no
// enabled tools is not considered enabled.
func GetMCPContext(database *gorm.DB, userID string) (*MCPContext, error) {
	var user User
	if err := database.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %s: %w", userID, err)
	}

	var plan Plan
	if err := database.Where("id = ?", user.PlanID).First(&plan).Error; err != nil {
		return nil, fmt.Errorf("plan not found: %s: %w", user.PlanID, err)
	}

	dailyUsed, err := CountUsageToday(database, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count usage: %w", err)
	}

	modules, err := ListModules(database)
	if err != nil {
		return nil, err
	}
	moduleNames := make(map[string]string, len(modules))
	for _, m := range modules {
		moduleNames[m.ID] = m.Name
	}

	var settings []ToolSetting
	if err := database.Where("user_id = ? AND enabled = true", userID).Find(&settings).Error; err != nil {
		return nil, err
	}

	enabledTools := make(map[string][]string)
	for _, ts := range settings {
		name, ok := moduleNames[ts.ModuleID]
		if !ok {
			continue // orphaned setting for an inactive module
		}
		enabledTools[name] = append(enabledTools[name], ts.ToolID)
	}

	enabledModules := make([]string, 0, len(enabledTools))
	for name := range enabledTools {
		enabledModules = append(enabledModules, name)
	}

	return &MCPContext{
		AccountStatus:  user.AccountStatus,
		PlanID:         user.PlanID,
		DailyUsed:      dailyUsed,
		DailyLimit:     plan.DailyLimit,
		EnabledModules: enabledModules,
		EnabledTools:   enabledTools,
	}, nil
}
