package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/dafibh/fortuna/fortuna-dashboard/docs"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec is the OpenAPI 3.0 document served at /api/v1/openapi.json
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server is an OpenAPI 3.0 server entry
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

type object = map[string]interface{}

var (
	openAPIOnce sync.Once
	openAPIDoc  OpenAPI3Spec
	openAPIErr  error
)

// convertSwagger turns the generated Swagger 2.0 document into OpenAPI 3.0.
// Servers are filled in per request.
func convertSwagger(raw string) (OpenAPI3Spec, error) {
	var swagger2 object
	if err := json.Unmarshal([]byte(raw), &swagger2); err != nil {
		return OpenAPI3Spec{}, err
	}

	components := object{}
	if defs, ok := swagger2["securityDefinitions"].(object); ok {
		components["securitySchemes"] = defs
	}
	if defs, ok := swagger2["definitions"].(object); ok {
		components["schemas"] = rewriteRefs(defs)
	}

	paths := object{}
	if in, ok := swagger2["paths"].(object); ok {
		for path, item := range in {
			ops, ok := item.(object)
			if !ok {
				continue
			}
			converted := object{}
			for method, op := range ops {
				if o, ok := op.(object); ok {
					converted[method] = convertOperation(o)
				}
			}
			paths[path] = converted
		}
	}

	info, _ := swagger2["info"].(object)
	return OpenAPI3Spec{OpenAPI: "3.0.3", Info: info, Paths: paths, Components: components}, nil
}

// convertOperation moves body and formData parameters into requestBody and
// wraps response schemas in a JSON content entry
func convertOperation(op object) object {
	out := object{}
	for k, v := range op {
		switch k {
		case "parameters", "responses", "consumes", "produces":
		default:
			out[k] = rewriteRefs(v)
		}
	}

	var params []interface{}
	form := object{}
	var required []interface{}
	if list, ok := op["parameters"].([]interface{}); ok {
		for _, p := range list {
			param, ok := p.(object)
			if !ok {
				continue
			}
			switch param["in"] {
			case "body":
				body := object{"content": object{"application/json": object{"schema": rewriteRefs(param["schema"])}}}
				if param["required"] == true {
					body["required"] = true
				}
				out["requestBody"] = body
			case "formData":
				name, _ := param["name"].(string)
				form[name] = formField(param)
				if param["required"] == true {
					required = append(required, name)
				}
			default:
				params = append(params, convertParameter(param))
			}
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}
	if len(form) > 0 {
		schema := object{"type": "object", "properties": form}
		if len(required) > 0 {
			schema["required"] = required
		}
		out["requestBody"] = object{"content": object{"multipart/form-data": object{"schema": schema}}}
	}

	if responses, ok := op["responses"].(object); ok {
		converted := object{}
		for code, r := range responses {
			resp, ok := r.(object)
			if !ok {
				continue
			}
			entry := object{"description": resp["description"]}
			if entry["description"] == nil {
				entry["description"] = http.StatusText(atoi(code))
			}
			if schema, ok := resp["schema"]; ok {
				entry["content"] = object{"application/json": object{"schema": rewriteRefs(schema)}}
			}
			converted[code] = entry
		}
		out["responses"] = converted
	}
	return out
}

// convertParameter moves type fields of a path, query or header parameter under schema
func convertParameter(param object) object {
	out := object{}
	schema := object{}
	for k, v := range param {
		switch k {
		case "type", "format", "enum", "default", "minimum", "maximum":
			schema[k] = v
		case "items":
			schema[k] = rewriteRefs(v)
		default:
			out[k] = v
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}
	return out
}

func formField(param object) object {
	if param["type"] == "file" {
		return object{"type": "string", "format": "binary"}
	}
	field := object{"type": param["type"]}
	if d, ok := param["description"]; ok {
		field["description"] = d
	}
	return field
}

// rewriteRefs points #/definitions/ references at #/components/schemas/
func rewriteRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case object:
		out := make(object, len(v))
		for k, val := range v {
			if ref, ok := val.(string); ok && k == "$ref" {
				out[k] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[k] = rewriteRefs(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteRefs(item)
		}
		return out
	default:
		return data
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// servers lists the serving host, then the default local address
func servers(c echo.Context) []Server {
	const local = "localhost:8080"
	out := []Server{}
	if host := c.Request().Host; host != "" && host != local {
		out = append(out, Server{URL: c.Scheme() + "://" + host + "/api/v1", Description: "Current"})
	}
	return append(out, Server{URL: "http://" + local + "/api/v1", Description: "Local Development"})
}

// ServeOpenAPI3Spec serves the API documentation as OpenAPI 3.0
func ServeOpenAPI3Spec(c echo.Context) error {
	openAPIOnce.Do(func() {
		var raw string
		raw, openAPIErr = swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if openAPIErr == nil {
			openAPIDoc, openAPIErr = convertSwagger(raw)
		}
	})
	if openAPIErr != nil {
		log.Error().Err(openAPIErr).Msg("Failed to build OpenAPI document")
		return NewInternalError(c, "Failed to build API documentation")
	}

	doc := openAPIDoc
	doc.Servers = servers(c)
	return c.JSON(http.StatusOK, doc)
}
