package main

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served API document must stay loadable and internally consistent.
func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("public/docs/v1/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "Baches Rosario API", doc.Info.Title)

	for _, path := range []string{
		"/api/auth/register",
		"/api/auth/login",
		"/api/auth/verify-email",
		"/api/auth/google/callback",
		"/api/reports",
		"/api/reports/{id}",
		"/api/reports/{id}/status",
		"/api/reports/{id}/vote",
		"/api/reports/{id}/comments",
		"/api/admin/stats",
		"/api/admin/reports/{id}/approve",
		"/api/admin/reports/{id}/reject",
		"/api/admin/users/{id}",
		"/api/health",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from the document", path)
	}
}
