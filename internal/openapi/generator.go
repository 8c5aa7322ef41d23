package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Version is the API version reported in the document's info block.
const Version = "1.0.0"

// Generate builds the OpenAPI 3.1 document for the incidentdesk HTTP API.
func Generate(baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "incidentdesk API",
			Description: "Admin backend for incident tracking: authentication, incidents, table headings, users and notifications.",
			Version:     Version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
	doc.Components = &components
	doc.Paths = openapi3.NewPaths()

	addAuthPaths(doc)
	addIncidentPaths(doc)
	addHeadingPaths(doc)
	addUserPaths(doc)
	addNotifyPaths(doc)
	addOperationalPaths(doc)

	return doc
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addAuthPaths(doc *openapi3.T) {
	credentials := objectSchema(openapi3.Schemas{
		"username": stringSchema(),
		"password": {Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "password"}},
	}, "username", "password")

	doc.Paths.Set("/login", &openapi3.PathItem{
		Post: operation("auth", "login", "Log in with username and password",
			credentials, "200", "Token pair and admin record", ref("AuthResponse"), false),
	})
	doc.Paths.Set("/signup", &openapi3.PathItem{
		Post: operation("auth", "signup", "Create an admin account",
			credentials, "201", "Token pair and the new admin record", ref("AuthResponse"), false),
	})
	doc.Paths.Set("/profile", &openapi3.PathItem{
		Post: operation("auth", "profile", "Resolve an access token to its admin",
			objectSchema(openapi3.Schemas{"token": stringSchema()}, "token"),
			"200", "Username and a fresh access token", objectSchema(openapi3.Schemas{
				"username":    stringSchema(),
				"accessToken": stringSchema(),
				"message":     stringSchema(),
			}), false),
	})
	doc.Paths.Set("/refresh-token", &openapi3.PathItem{
		Post: operation("auth", "refreshToken", "Exchange the current refresh token for an access token",
			objectSchema(openapi3.Schemas{"refreshToken": stringSchema()}, "refreshToken"),
			"200", "New access token", objectSchema(openapi3.Schemas{"accessToken": stringSchema()}), false),
	})
	doc.Paths.Set("/logout", &openapi3.PathItem{
		Post: operation("auth", "logout", "Revoke the caller's refresh token",
			nil, "200", "Logged out", ref("Message"), true),
	})
}

func addIncidentPaths(doc *openapi3.T) {
	list := operation("incidents", "listIncidents", "List incidents in the window [start, end)",
		nil, "200", "A page of incidents", objectSchema(openapi3.Schemas{
			"success":    boolSchema(),
			"data":       arrayOf(ref("Incident")),
			"pagination": ref("Pagination"),
		}), true)
	list.Parameters = openapi3.Parameters{
		queryParam("start", "Index of the first incident (default 0)"),
		queryParam("end", "Index one past the last incident (default 10)"),
	}
	doc.Paths.Set("/incidents", &openapi3.PathItem{Get: list})

	doc.Paths.Set("/incidents/status", &openapi3.PathItem{
		Post: operation("incidents", "updateIncidentStatus", "Change an incident's status",
			objectSchema(openapi3.Schemas{"id": int64Schema(), "status": stringSchema()}, "id", "status"),
			"200", "The updated incident", objectSchema(openapi3.Schemas{
				"success":         boolSchema(),
				"message":         stringSchema(),
				"updatedIncident": ref("Incident"),
			}), true),
	})
}

func addHeadingPaths(doc *openapi3.T) {
	kind := &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     "kind",
			In:       "path",
			Required: true,
			Schema: &openapi3.SchemaRef{Value: &openapi3.Schema{
				Type: &openapi3.Types{"string"},
				Enum: []interface{}{"incidents", "malware", "victims"},
			}},
		},
	}

	get := operation("headings", "getHeadings", "Get an admin's headings for one table",
		objectSchema(openapi3.Schemas{"userId": int64Schema()}),
		"200", "The heading map", dataResponse(ref("Headings")), true)
	get.Parameters = openapi3.Parameters{kind}

	put := operation("headings", "updateHeadings", "Replace an admin's headings for one table",
		objectSchema(openapi3.Schemas{"userId": int64Schema(), "headings": ref("Headings")}, "headings"),
		"200", "The updated admin", dataResponse(ref("Admin")), true)
	put.Parameters = openapi3.Parameters{kind}

	doc.Paths.Set("/headings/{kind}", &openapi3.PathItem{Post: get, Put: put})
}

func addUserPaths(doc *openapi3.T) {
	doc.Paths.Set("/users", &openapi3.PathItem{
		Get: operation("users", "listUsers", "List all users",
			nil, "200", "All users", dataResponse(arrayOf(ref("User"))), true),
	})
}

func addNotifyPaths(doc *openapi3.T) {
	destination := objectSchema(openapi3.Schemas{
		"destination": describedString("Email address or phone number"),
	}, "destination")
	verify := objectSchema(openapi3.Schemas{
		"destination": describedString("Email address or phone number"),
		"code":        describedString("Six digit code"),
	}, "destination", "code")

	routes := []struct {
		path, id, summary string
		body              *openapi3.SchemaRef
	}{
		{"/auth/send-otp", "sendOtp", "Send a one-time password", destination},
		{"/auth/verify-otp", "verifyOtp", "Verify a one-time password", verify},
		{"/auth/send-reset-password-code", "sendResetPasswordCode", "Send a password reset code", destination},
		{"/auth/verify-reset-password-code", "verifyResetPasswordCode", "Verify a password reset code", verify},
		{"/auth/send-purchase-confirmation", "sendPurchaseConfirmation", "Send an order confirmation", ref("PurchaseConfirmation")},
		{"/auth/send-data-deletion-request", "sendDataDeletionRequest", "Acknowledge and forward a data deletion request", ref("DeletionRequest")},
	}
	for _, rt := range routes {
		doc.Paths.Set(rt.path, &openapi3.PathItem{
			Post: operation("notifications", rt.id, rt.summary, rt.body, "200", "Sent", ref("Message"), false),
		})
	}
}

func addOperationalPaths(doc *openapi3.T) {
	for _, p := range []struct{ path, id, summary string }{
		{"/healthz", "healthz", "Liveness probe"},
		{"/readyz", "readyz", "Readiness probe (checks the database)"},
	} {
		desc := "OK"
		responses := openapi3.NewResponses()
		responses.Set("200", &openapi3.ResponseRef{Value: &openapi3.Response{Description: &desc}})
		doc.Paths.Set(p.path, &openapi3.PathItem{
			Get: &openapi3.Operation{
				Tags:        []string{"system"},
				Summary:     p.summary,
				OperationID: p.id,
				Responses:   responses,
			},
		})
	}
}

// ─── Components ─────────────────────────────────────────────────────────────

func componentSchemas() openapi3.Schemas {
	dateTime := func() *openapi3.SchemaRef {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time", ReadOnly: true}}
	}

	return openapi3.Schemas{
		"ErrorResponse": objectSchema(openapi3.Schemas{
			"error": objectSchema(openapi3.Schemas{
				"code":    {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
				"message": stringSchema(),
				"context": {Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
			}),
		}),
		"Message": objectSchema(openapi3.Schemas{"message": stringSchema()}),
		"Headings": {Value: &openapi3.Schema{
			Type:                 &openapi3.Types{"object"},
			Description:          "Column key to display label",
			AdditionalProperties: openapi3.AdditionalProperties{Schema: stringSchema()},
		}},
		"Admin": objectSchema(openapi3.Schemas{
			"id":              int64Schema(),
			"username":        stringSchema(),
			"tableHeadings":   ref("Headings"),
			"malwareHeadings": ref("Headings"),
			"victimHeadings":  ref("Headings"),
			"createdAt":       dateTime(),
			"updatedAt":       dateTime(),
		}),
		"AuthResponse": objectSchema(openapi3.Schemas{
			"accessToken":  stringSchema(),
			"refreshToken": stringSchema(),
			"admin":        ref("Admin"),
			"message":      stringSchema(),
		}),
		"Incident": objectSchema(openapi3.Schemas{
			"id":          int64Schema(),
			"title":       stringSchema(),
			"description": stringSchema(),
			"severity":    stringSchema(),
			"status":      stringSchema(),
			"createdAt":   dateTime(),
			"updatedAt":   dateTime(),
		}),
		"Pagination": objectSchema(openapi3.Schemas{
			"start": int64Schema(),
			"end":   int64Schema(),
			"count": int64Schema(),
		}),
		"User": objectSchema(openapi3.Schemas{
			"id":        int64Schema(),
			"name":      stringSchema(),
			"email":     stringSchema(),
			"phone":     stringSchema(),
			"createdAt": dateTime(),
		}),
		"PurchaseConfirmation": objectSchema(openapi3.Schemas{
			"destination": stringSchema(),
			"name":        stringSchema(),
			"orderId":     stringSchema(),
			"amount":      numberSchema(),
			"currency":    stringSchema(),
			"items": arrayOf(objectSchema(openapi3.Schemas{
				"name":     stringSchema(),
				"quantity": int64Schema(),
				"price":    numberSchema(),
			})),
		}, "destination", "orderId"),
		"DeletionRequest": objectSchema(openapi3.Schemas{
			"destination": stringSchema(),
			"name":        stringSchema(),
			"reason":      stringSchema(),
		}, "destination"),
	}
}

// ─── Builders ───────────────────────────────────────────────────────────────

// operation builds a JSON operation. A nil body means no request body;
// secured operations require the bearer scheme.
func operation(tag, id, summary string, body *openapi3.SchemaRef, status, desc string, resp *openapi3.SchemaRef, secured bool) *openapi3.Operation {
	op := &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Responses:   newResponses(status, desc, resp),
	}
	if body != nil {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(body),
			},
		}
	}
	if secured {
		op.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}
	return op
}

func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for _, e := range []struct{ code, desc string }{
		{"400", "Bad request"},
		{"401", "Unauthorized"},
		{"404", "Not found"},
		{"500", "Internal server error"},
	} {
		desc := e.desc
		responses.Set(e.code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef(fmt.Sprintf("#/components/schemas/%s", name), nil)
}

func objectSchema(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func dataResponse(data *openapi3.SchemaRef) *openapi3.SchemaRef {
	return objectSchema(openapi3.Schemas{"message": stringSchema(), "data": data})
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}}
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func describedString(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func int64Schema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}
}

func numberSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}
}

func boolSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
}

func queryParam(name, desc string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:        name,
			In:          "query",
			Description: desc,
			Schema:      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Min: ptrFloat(0)}},
		},
	}
}

func ptrFloat(f float64) *float64 { return &f }
