package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/docsearch/searchindex-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "searchindex://"

// RegisterResources exposes the loaded index and its schema as resources
func RegisterResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "payload",
		Name:        "payload",
		Description: "The loaded index as plain JSON, keys sorted",
		MIMEType:    "application/json",
	}, handlePayloadResource)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "schema",
		Name:        "schema",
		Description: "JSON schema of the searchindex.js payload",
		MIMEType:    "application/schema+json",
	}, handleSchemaResource)

	// Reserved expansion, docnames contain slashes
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{+docname}",
		Name:        "document",
		Description: "One document with the tokens that point at it",
		MIMEType:    "application/json",
	}, handleDocumentResource)

	log.Printf("✓ Resources registered: payload, schema, documents/{+docname}")
}

func jsonContents(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

func handlePayloadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	loaded, err := currentIndex(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := loaded.Index.Payload()
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return jsonContents(req.Params.URI, payload), nil
}

func handleSchemaResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonContents(req.Params.URI, searchindex.Schema()), nil
}

func handleDocumentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	name := strings.TrimPrefix(req.Params.URI, uriScheme+"documents/")
	if name == "" || name == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, output, err := GetDocument(ctx, nil, GetDocumentInput{Name: name})
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}
	return jsonContents(req.Params.URI, data), nil
}
