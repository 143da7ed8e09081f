package linear

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// Compact formatters per tool — pure transformation: (toolName, JSON) → string
// =============================================================================

func formatCompact(toolName, jsonStr string) string {
	switch toolName {
	// Read: list/search → CSV
	case "list_issues", "search_issues", "my_issues":
		return issuesToCSV(jsonStr)
	case "list_comments":
		return commentsToCompact(jsonStr)
	case "list_projects":
		return projectsToCSV(jsonStr)
	case "list_cycles":
		return cyclesToCSV(jsonStr)
	case "list_teams":
		return teamsToCSV(jsonStr)
	case "list_team_states":
		return statesToCSV(jsonStr)
	case "list_users":
		return usersToCSV(jsonStr)
	case "list_labels":
		return labelsToCSV(jsonStr)
	case "get_attachment_by_url":
		return attachmentsToCSV(jsonStr)
	// Read: single item → MD
	case "get_issue":
		return issueToCompact(jsonStr)
	case "issue_context":
		return contextToCompact(jsonStr)
	case "whoami":
		return userToCompact(jsonStr)
	// Write: confirmation with key fields
	case "create_issue", "update_issue":
		return pickKeys(jsonStr, "id", "identifier", "title", "state")
	case "create_comment":
		return pickKeys(jsonStr, "id", "created_at")
	case "create_project", "update_project":
		return pickKeys(jsonStr, "id", "name", "state")
	case "create_label":
		return pickKeys(jsonStr, "id", "name", "color")
	case "create_attachment", "update_attachment":
		return pickKeys(jsonStr, "id", "url", "title")
	default:
		return jsonStr
	}
}

// pickKeys extracts only the specified keys from a JSON object.
func pickKeys(jsonStr string, keys ...string) string {
	var data map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return jsonStr
	}
	result := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			result[k] = v
		}
	}
	out, err := json.Marshal(result)
	if err != nil {
		return jsonStr
	}
	return string(out)
}

// issuesToCSV: identifier,title,state,priority,assignee,updated
func issuesToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	issues, ok := wrapper["issues"].([]any)
	if !ok {
		return jsonStr
	}
	if len(issues) == 0 {
		return "# 0 issues"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("```csv  # %d issues\nidentifier,title,state,priority,assignee,updated\n", len(issues)))
	for _, raw := range issues {
		issue, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		updated := str(issue, "updated_at")
		if len(updated) > 10 {
			updated = updated[:10]
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%s,%s\n",
			str(issue, "identifier"),
			csvEscape(str(issue, "title")),
			csvEscape(str(issue, "state")),
			intVal(issue, "priority"),
			csvEscape(str(issue, "assignee")),
			updated,
		))
	}
	sb.WriteString("```")
	return sb.String()
}

// issueToCompact: single issue detail
func issueToCompact(jsonStr string) string {
	var issue map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &issue); err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s: %s\n", str(issue, "identifier"), str(issue, "title")))
	if s := str(issue, "state"); s != "" {
		sb.WriteString(fmt.Sprintf("- **State**: %s\n", s))
	}
	sb.WriteString(fmt.Sprintf("- **Priority**: %d\n", intVal(issue, "priority")))
	if a := str(issue, "assignee"); a != "" {
		sb.WriteString(fmt.Sprintf("- **Assignee**: %s\n", a))
	}
	if labels, ok := issue["labels"].([]any); ok && len(labels) > 0 {
		strs := make([]string, 0, len(labels))
		for _, l := range labels {
			if s, ok := l.(string); ok {
				strs = append(strs, s)
			}
		}
		if len(strs) > 0 {
			sb.WriteString(fmt.Sprintf("- **Labels**: %s\n", strings.Join(strs, ", ")))
		}
	}
	if created := str(issue, "created_at"); len(created) >= 10 {
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", created[:10]))
	}
	if updated := str(issue, "updated_at"); len(updated) >= 10 {
		sb.WriteString(fmt.Sprintf("- **Updated**: %s\n", updated[:10]))
	}
	if desc := str(issue, "description"); desc != "" {
		sb.WriteString(fmt.Sprintf("\n## Description\n%s\n", desc))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// contextToCompact: issue detail followed by comments and valid states
func contextToCompact(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	issue, ok := wrapper["issue"].(map[string]any)
	if !ok {
		return jsonStr
	}
	issueJSON, err := json.Marshal(issue)
	if err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(issueToCompact(string(issueJSON)))

	if comments, ok := wrapper["comments"].([]any); ok && len(comments) > 0 {
		sb.WriteString(fmt.Sprintf("\n\n## %d comments\n", len(comments)))
		for _, raw := range comments {
			c, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			created := str(c, "created_at")
			if len(created) > 16 {
				created = created[:16]
			}
			sb.WriteString(fmt.Sprintf("\n**%s** (%s):\n%s\n", str(c, "user"), created, str(c, "body")))
		}
	}

	if states, ok := wrapper["states"].([]any); ok && len(states) > 0 {
		sb.WriteString("\n\n## Workflow states\n```csv\nid,name,type\n")
		for _, raw := range states {
			s, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("%s,%s,%s\n",
				str(s, "id"), csvEscape(str(s, "name")), str(s, "type")))
		}
		sb.WriteString("```")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// commentsToCompact: comments list
func commentsToCompact(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	comments, ok := wrapper["comments"].([]any)
	if !ok {
		return jsonStr
	}
	if len(comments) == 0 {
		return "# 0 comments"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %d comments\n\n", len(comments)))
	for _, raw := range comments {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		created := str(c, "created_at")
		if len(created) > 16 {
			created = created[:16]
		}
		sb.WriteString(fmt.Sprintf("**%s** (%s):\n%s\n\n", str(c, "user"), created, str(c, "body")))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// projectsToCSV: id,name,state,progress,target_date
func projectsToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	projects, ok := wrapper["projects"].([]any)
	if !ok {
		return jsonStr
	}
	if len(projects) == 0 {
		return "# 0 projects"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,name,state,progress,target_date\n")
	for _, raw := range projects {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.2f,%s\n",
			str(p, "id"),
			csvEscape(str(p, "name")),
			str(p, "state"),
			floatVal(p, "progress"),
			str(p, "target_date"),
		))
	}
	sb.WriteString("```")
	return sb.String()
}

// cyclesToCSV: id,number,name,starts_at,ends_at,progress
func cyclesToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	cycles, ok := wrapper["cycles"].([]any)
	if !ok {
		return jsonStr
	}
	if len(cycles) == 0 {
		return "# 0 cycles"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,number,name,starts_at,ends_at,progress\n")
	for _, raw := range cycles {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		starts := str(c, "starts_at")
		if len(starts) > 10 {
			starts = starts[:10]
		}
		ends := str(c, "ends_at")
		if len(ends) > 10 {
			ends = ends[:10]
		}
		sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%.2f\n",
			str(c, "id"),
			intVal(c, "number"),
			csvEscape(str(c, "name")),
			starts,
			ends,
			floatVal(c, "progress"),
		))
	}
	sb.WriteString("```")
	return sb.String()
}

// teamsToCSV: id,key,name
func teamsToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	teams, ok := wrapper["teams"].([]any)
	if !ok {
		return jsonStr
	}
	if len(teams) == 0 {
		return "# 0 teams"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,key,name\n")
	for _, raw := range teams {
		t, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s\n",
			str(t, "id"), str(t, "key"), csvEscape(str(t, "name"))))
	}
	sb.WriteString("```")
	return sb.String()
}

// statesToCSV: id,name,type,position
func statesToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	states, ok := wrapper["states"].([]any)
	if !ok {
		return jsonStr
	}
	if len(states) == 0 {
		return "# 0 states"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,name,type,position\n")
	for _, raw := range states {
		s, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.1f\n",
			str(s, "id"),
			csvEscape(str(s, "name")),
			str(s, "type"),
			floatVal(s, "position"),
		))
	}
	sb.WriteString("```")
	return sb.String()
}

// usersToCSV: id,name,email
func usersToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	users, ok := wrapper["users"].([]any)
	if !ok {
		return jsonStr
	}
	if len(users) == 0 {
		return "# 0 users"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,name,email\n")
	for _, raw := range users {
		u, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s\n",
			str(u, "id"), csvEscape(str(u, "name")), str(u, "email")))
	}
	sb.WriteString("```")
	return sb.String()
}

// labelsToCSV: id,name,color
func labelsToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	labels, ok := wrapper["labels"].([]any)
	if !ok {
		return jsonStr
	}
	if len(labels) == 0 {
		return "# 0 labels"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,name,color\n")
	for _, raw := range labels {
		l, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s\n",
			str(l, "id"), csvEscape(str(l, "name")), str(l, "color")))
	}
	sb.WriteString("```")
	return sb.String()
}

// attachmentsToCSV: id,url,title
func attachmentsToCSV(jsonStr string) string {
	var wrapper map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return jsonStr
	}
	attachments, ok := wrapper["attachments"].([]any)
	if !ok {
		return jsonStr
	}
	if len(attachments) == 0 {
		return "# 0 attachments"
	}
	var sb strings.Builder
	sb.WriteString("```csv\nid,url,title\n")
	for _, raw := range attachments {
		a, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s\n",
			str(a, "id"), csvEscape(str(a, "url")), csvEscape(str(a, "title"))))
	}
	sb.WriteString("```")
	return sb.String()
}

// userToCompact: viewer profile summary
func userToCompact(jsonStr string) string {
	var u map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &u); err != nil {
		return jsonStr
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n", str(u, "name")))
	sb.WriteString(fmt.Sprintf("- **ID**: %s\n", str(u, "id")))
	if email := str(u, "email"); email != "" {
		sb.WriteString(fmt.Sprintf("- **Email**: %s\n", email))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// =============================================================================
// Helpers
// =============================================================================

func str(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func intVal(obj map[string]any, key string) int {
	if v, ok := obj[key].(float64); ok {
		return int(v)
	}
	return 0
}

func floatVal(obj map[string]any, key string) float64 {
	if v, ok := obj[key].(float64); ok {
		return v
	}
	return 0
}

func csvEscape(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, ",\"\n\r") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
