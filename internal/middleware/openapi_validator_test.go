package middleware

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAPISpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err, "Failed to load OpenAPI spec")
	return doc
}

func TestOpenAPISpecIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile("../../artifacts/openapi.yaml")
	require.NoError(t, err, "Failed to load OpenAPI spec")

	err = doc.Validate(loader.Context)
	require.NoError(t, err, "OpenAPI spec validation failed")

	assert.Equal(t, "Backoffice API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotEmpty(t, doc.Servers, "At least one server should be defined")
}

func TestAllRoutesAreDocumentedInOpenAPI(t *testing.T) {
	doc := loadAPISpec(t)

	// List of all implemented routes in the application
	implementedRoutes := []struct {
		method string
		path   string
	}{
		// Authentication routes
		{"POST", "/api/v1/auth/login"},
		{"POST", "/api/v1/auth/logout"},
		{"GET", "/api/v1/auth/check"},

		// Customer routes
		{"GET", "/api/v1/customers"},
		{"POST", "/api/v1/customers"},
		{"GET", "/api/v1/customers/{id}"},

		// Health routes
		{"GET", "/health"},
		{"GET", "/health/ready"},
	}

	for _, route := range implementedRoutes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			pathItem := doc.Paths.Find(route.path)
			require.NotNil(t, pathItem, "Path not found in OpenAPI spec: %s", route.path)

			operation := pathItem.GetOperation(route.method)
			require.NotNil(t, operation, "Operation not found in OpenAPI spec: %s %s", route.method, route.path)

			assert.NotEmpty(t, operation.OperationID, "OperationID should be set")
			assert.NotEmpty(t, operation.Responses, "Responses should be defined")
		})
	}
}

func TestOpenAPISchemas(t *testing.T) {
	doc := loadAPISpec(t)

	requiredSchemas := []string{
		"LoginRequest",
		"LoginResponse",
		"CheckResponse",
		"AuthRejected",
		"CreateCustomerRequest",
		"Customer",
		"Error",
	}

	for _, schemaName := range requiredSchemas {
		schema := doc.Components.Schemas[schemaName]
		assert.NotNil(t, schema, "Schema should exist: %s", schemaName)
	}
}

func TestAuthRejectedSchemaCoversAllFailureTypes(t *testing.T) {
	doc := loadAPISpec(t)

	schema := doc.Components.Schemas["AuthRejected"]
	require.NotNil(t, schema)

	envelope := schema.Value.Properties["authRejected"]
	require.NotNil(t, envelope)

	errorType := envelope.Value.Properties["errorType"]
	require.NotNil(t, errorType)

	expectedTypes := []string{
		"notLoggedIn",
		"incompleteAuth",
		"verification",
		"loginSessionNotFound",
		"csrfSessionNotFound",
		"sessionExpired",
		"sessionCanceled",
		"database",
	}
	assert.Len(t, errorType.Value.Enum, len(expectedTypes))
	for _, want := range expectedTypes {
		assert.Contains(t, errorType.Value.Enum, want)
	}
}

func TestShouldSkipPath(t *testing.T) {
	skipPaths := []string{
		"/health",
		"/health/ready",
		"/metrics",
		"/",
	}

	tests := []struct {
		path     string
		expected bool
	}{
		{"/", true},
		{"/health", true},
		{"/health/ready", true},
		{"/metrics", true},
		{"/api/v1/customers", false},
		{"/api/v1/auth/login", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldSkipPath(tt.path, skipPaths))
		})
	}
}

func TestOpenAPIValidator_DisabledReturnsNoop(t *testing.T) {
	config := &OpenAPIValidatorConfig{Enabled: false}
	middleware := OpenAPIValidator(config)
	require.NotNil(t, middleware)
}
