package linear

import (
	"context"

	"github.com/go-faster/errors"

	"linearmcp/server/internal/modules"
	"linearmcp/server/pkg/linearapi"
)

// =============================================================================
// Attachment tools: get_attachment, get_attachment_by_url,
// create_attachment, update_attachment
// =============================================================================
// Linear treats the attachment URL as an idempotent key per-issue: creating
// with an existing URL updates the attachment instead of duplicating it.

const attachmentFields = "id url title subtitle"

var attachmentTools = []modules.Tool{
	{
		ID:          "linear:get_attachment",
		Name:        "get_attachment",
		Description: "Get an attachment by UUID.",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"attachment_id":  {Type: "string", Description: "Attachment UUID"},
				"signed_url_ttl": {Type: "number", Description: "Lifetime in seconds for signed file URLs in the response"},
			},
			Required: []string{"attachment_id"},
		},
	},
	{
		ID:          "linear:get_attachment_by_url",
		Name:        "get_attachment_by_url",
		Description: "Get attachments by their external URL (typically one per issue sharing that URL).",
		Annotations: modules.AnnotateReadOnly,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"url":            {Type: "string", Description: "External URL to look up"},
				"signed_url_ttl": {Type: "number", Description: "Lifetime in seconds for signed file URLs in the response"},
			},
			Required: []string{"url"},
		},
	},
	{
		ID:          "linear:create_attachment",
		Name:        "create_attachment",
		Description: "Link an external URL to an issue. Re-using a URL on the same issue updates the existing attachment.",
		Annotations: modules.AnnotateCreate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"issue_id":         {Type: "string", Description: "UUID or identifier of the parent issue"},
				"url":              {Type: "string", Description: "External URL to link"},
				"title":            {Type: "string", Description: "Display title"},
				"subtitle":         {Type: "string", Description: "Display subtitle"},
				"icon_url":         {Type: "string", Description: "Override icon URL (png or jpg)"},
				"metadata":         {Type: "object", Description: "Arbitrary key-value metadata"},
				"create_as_user":   {Type: "string", Description: "Display name for the acting user (actor=app tokens only)"},
				"display_icon_url": {Type: "string", Description: "Avatar URL for the acting user (actor=app tokens only)"},
			},
			Required: []string{"issue_id", "url"},
		},
	},
	{
		ID:          "linear:update_attachment",
		Name:        "update_attachment",
		Description: "Update an existing attachment by UUID. Only provided fields are changed.",
		Annotations: modules.AnnotateUpdate,
		InputSchema: modules.InputSchema{
			Type: "object",
			Properties: map[string]modules.Property{
				"attachment_id": {Type: "string", Description: "Attachment UUID"},
				"title":         {Type: "string", Description: "New display title"},
				"subtitle":      {Type: "string", Description: "New display subtitle"},
				"metadata":      {Type: "object", Description: "New metadata (replaces existing)"},
			},
			Required: []string{"attachment_id"},
		},
	},
}

var attachmentHandlers = map[string]toolHandler{
	"get_attachment":        getAttachment,
	"get_attachment_by_url": getAttachmentByURL,
	"create_attachment":     createAttachment,
	"update_attachment":     updateAttachment,
}

type attachmentList struct {
	Attachments []Attachment `json:"attachments"`
}

// signedURLOpts turns the optional signed_url_ttl param into dispatch options.
func signedURLOpts(params map[string]any) []linearapi.DispatchOption {
	if ttl := intParam(params, "signed_url_ttl", 0); ttl > 0 {
		return []linearapi.DispatchOption{linearapi.WithSignedURLTTL(ttl)}
	}
	return nil
}

func getAttachment(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query Attachment($id: String!) {
        attachment(id: $id) { ` + attachmentFields + ` }
    }`
	res := client.Dispatch(ctx, query,
		map[string]any{"id": strParam(params, "attachment_id")}, signedURLOpts(params)...)
	data, err := dataObject(res, "Failed to fetch attachment")
	if err != nil {
		return "", err
	}
	attachment, ok := data["attachment"].(map[string]any)
	if !ok {
		return "", errors.New("Attachment not found")
	}
	return toJSON(parseAttachment(attachment))
}

func getAttachmentByURL(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    query AttachmentsByURL($url: String!) {
        attachmentsForURL(url: $url) {
            nodes { ` + attachmentFields + ` }
        }
    }`
	res := client.Dispatch(ctx, query,
		map[string]any{"url": strParam(params, "url")}, signedURLOpts(params)...)
	data, err := dataObject(res, "Failed to fetch attachments")
	if err != nil {
		return "", err
	}
	container, ok := data["attachmentsForURL"].(map[string]any)
	if !ok {
		return "", errors.New("No attachment data")
	}
	nodes, ok := nodeList(container)
	if !ok {
		return "", errors.New("Unexpected nodes format")
	}
	attachments := make([]Attachment, 0, len(nodes))
	for _, node := range objectNodes(nodes) {
		attachments = append(attachments, parseAttachment(node))
	}
	return toJSON(attachmentList{Attachments: attachments})
}

func createAttachment(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation AttachmentCreate($input: AttachmentCreateInput!) {
        attachmentCreate(input: $input) {
            success
            attachment { ` + attachmentFields + ` }
        }
    }`
	input := map[string]any{
		"issueId": strParam(params, "issue_id"),
		"url":     strParam(params, "url"),
	}
	setOptStr(input, params, "title", "title")
	setOptStr(input, params, "subtitle", "subtitle")
	setOptStr(input, params, "icon_url", "iconUrl")
	if v, ok := optParam(params, "metadata"); ok {
		if m, ok := v.(map[string]any); ok {
			input["metadata"] = m
		}
	}
	setOptStr(input, params, "create_as_user", "createAsUser")
	setOptStr(input, params, "display_icon_url", "displayIconUrl")

	res := client.Dispatch(ctx, query, map[string]any{"input": input})
	data, err := dataObject(res, "Failed to create attachment")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "attachmentCreate", "Attachment creation failed")
	if err != nil {
		return "", err
	}
	attachment, ok := payload["attachment"].(map[string]any)
	if !ok {
		return "", errors.New("No attachment in response")
	}
	return toJSON(parseAttachment(attachment))
}

func updateAttachment(ctx context.Context, params map[string]any) (string, error) {
	client, err := newClient(ctx)
	if err != nil {
		return "", err
	}

	query := `
    mutation AttachmentUpdate($id: String!, $input: AttachmentUpdateInput!) {
        attachmentUpdate(id: $id, input: $input) {
            success
            attachment { ` + attachmentFields + ` }
        }
    }`
	input := map[string]any{}
	setOptStr(input, params, "title", "title")
	setOptStr(input, params, "subtitle", "subtitle")
	if v, ok := optParam(params, "metadata"); ok {
		if m, ok := v.(map[string]any); ok {
			input["metadata"] = m
		}
	}

	res := client.Dispatch(ctx, query, map[string]any{
		"id":    strParam(params, "attachment_id"),
		"input": input,
	})
	data, err := dataObject(res, "Failed to update attachment")
	if err != nil {
		return "", err
	}
	payload, err := mutationPayload(data, "attachmentUpdate", "Attachment update failed")
	if err != nil {
		return "", err
	}
	attachment, ok := payload["attachment"].(map[string]any)
	if !ok {
		return "", errors.New("No attachment in response")
	}
	return toJSON(parseAttachment(attachment))
}
