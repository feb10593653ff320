package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertOperation_BodyAndResponses(t *testing.T) {
	op := object{
		"summary":  "Create a budget",
		"consumes": []interface{}{"application/json"},
		"parameters": []interface{}{
			object{"name": "request", "in": "body", "required": true, "schema": object{"$ref": "#/definitions/domain.CreateBudgetInput"}},
		},
		"responses": object{
			"201": object{"description": "Created", "schema": object{"$ref": "#/definitions/domain.Budget"}},
			"204": object{},
		},
	}

	out := convertOperation(op)

	assert.Equal(t, "Create a budget", out["summary"])
	assert.NotContains(t, out, "parameters")
	assert.NotContains(t, out, "consumes")

	body := out["requestBody"].(object)
	assert.Equal(t, true, body["required"])
	schema := body["content"].(object)["application/json"].(object)["schema"].(object)
	assert.Equal(t, "#/components/schemas/domain.CreateBudgetInput", schema["$ref"])

	responses := out["responses"].(object)
	created := responses["201"].(object)
	ref := created["content"].(object)["application/json"].(object)["schema"].(object)["$ref"]
	assert.Equal(t, "#/components/schemas/domain.Budget", ref)
	assert.Equal(t, "No Content", responses["204"].(object)["description"])
}

func TestConvertOperation_FormDataAndPathParams(t *testing.T) {
	op := object{
		"parameters": []interface{}{
			object{"name": "accountId", "in": "path", "required": true, "type": "integer", "description": "Account ID"},
			object{"name": "file", "in": "formData", "required": true, "type": "file"},
		},
	}

	out := convertOperation(op)

	params := out["parameters"].([]interface{})
	require.Len(t, params, 1)
	path := params[0].(object)
	assert.Equal(t, "accountId", path["name"])
	assert.Equal(t, object{"type": "integer"}, path["schema"])
	assert.NotContains(t, path, "type")

	schema := out["requestBody"].(object)["content"].(object)["multipart/form-data"].(object)["schema"].(object)
	assert.Equal(t, object{"type": "string", "format": "binary"}, schema["properties"].(object)["file"])
	assert.Equal(t, []interface{}{"file"}, schema["required"])
}

func TestServeOpenAPI3Spec(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/openapi.json", nil)
	req.Host = "dash.example.com"
	rec := httptest.NewRecorder()

	require.NoError(t, ServeOpenAPI3Spec(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc OpenAPI3Spec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "Fortuna Dashboard API", doc.Info["title"])
	require.Len(t, doc.Servers, 2)
	assert.Equal(t, "http://dash.example.com/api/v1", doc.Servers[0].URL)
	assert.Contains(t, doc.Paths, "/view")
	assert.Contains(t, doc.Components, "securitySchemes")
}
