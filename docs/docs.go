// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/signup": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Sign up",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.signupRequest"
						}
					}
				]
			}
		},
		"/login": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Login",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.loginRequest"
						}
					}
				]
			}
		},
		"/recover-password": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Recover password",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.recoverPasswordRequest"
						}
					}
				]
			}
		},
		"/realtime-token": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Realtime connection token",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.realtimeTokenRequest"
						}
					}
				]
			}
		},
		"/restaurants": {
			"get": {
				"tags": [
					"catalog"
				],
				"summary": "List restaurants",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				}
			}
		},
		"/restaurants/{id}": {
			"put": {
				"tags": [
					"catalog"
				],
				"summary": "Update restaurant profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Restaurant id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.restaurantProfileRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"admin"
				],
				"summary": "Decline a restaurant",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Restaurant id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/restaurants/{id}/status": {
			"put": {
				"tags": [
					"catalog"
				],
				"summary": "Open or close a restaurant",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Restaurant id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.restaurantOpenRequest"
						}
					}
				]
			}
		},
		"/restaurants/{id}/verify": {
			"put": {
				"tags": [
					"admin"
				],
				"summary": "Verify a restaurant",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Restaurant id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.restaurantVerifyRequest"
						}
					}
				]
			}
		},
		"/menu": {
			"get": {
				"tags": [
					"catalog"
				],
				"summary": "List menu items",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "Restaurant id",
						"name": "restaurantId",
						"in": "query"
					}
				]
			},
			"post": {
				"tags": [
					"catalog"
				],
				"summary": "Create menu item",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.menuItemRequest"
						}
					}
				]
			}
		},
		"/menu/{id}": {
			"put": {
				"tags": [
					"catalog"
				],
				"summary": "Update menu item",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Menu item id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.menuItemRequest"
						}
					}
				]
			},
			"delete": {
				"tags": [
					"catalog"
				],
				"summary": "Delete menu item",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Menu item id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders": {
			"post": {
				"tags": [
					"orders"
				],
				"summary": "Place an order",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Replay protection key",
						"name": "Idempotency-Key",
						"in": "header"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.placeOrderRequest"
						}
					}
				]
			},
			"get": {
				"tags": [
					"orders"
				],
				"summary": "List orders",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/orders/{id}": {
			"get": {
				"tags": [
					"orders"
				],
				"summary": "Get an order",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Order id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/history": {
			"get": {
				"tags": [
					"orders"
				],
				"summary": "Order status history",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Order id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/orders/{id}/status": {
			"put": {
				"tags": [
					"orders"
				],
				"summary": "Advance order status",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Order id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updateStatusRequest"
						}
					}
				]
			}
		},
		"/orders/{id}/verify": {
			"post": {
				"tags": [
					"orders"
				],
				"summary": "Verify pickup code",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Order id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.pickupCodeRequest"
						}
					}
				]
			}
		},
		"/pickup": {
			"post": {
				"tags": [
					"orders"
				],
				"summary": "Verify pickup by code only",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.errorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.pickupCodeRequest"
						}
					}
				]
			}
		}
	},
	"definitions": {
		"handler.errorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"handler.signupRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"enum": [
						"STUDENT",
						"RESTAURANT"
					]
				},
				"securityQuestion": {
					"type": "string"
				},
				"securityAnswer": {
					"type": "string"
				},
				"restaurantName": {
					"type": "string"
				}
			},
			"required": [
				"email",
				"name",
				"password",
				"role"
			]
		},
		"handler.loginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			},
			"required": [
				"email",
				"password"
			]
		},
		"handler.recoverPasswordRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"securityAnswer": {
					"type": "string"
				},
				"newPassword": {
					"type": "string"
				}
			},
			"required": [
				"email",
				"newPassword",
				"securityAnswer"
			]
		},
		"handler.realtimeTokenRequest": {
			"type": "object",
			"properties": {
				"userId": {
					"type": "string"
				}
			},
			"required": [
				"userId"
			]
		},
		"handler.restaurantProfileRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"cuisine": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"imageUrl": {
					"type": "string"
				},
				"upiId": {
					"type": "string"
				},
				"hours": {
					"type": "string"
				}
			},
			"required": [
				"name"
			]
		},
		"handler.restaurantOpenRequest": {
			"type": "object",
			"properties": {
				"isOpen": {
					"type": "boolean"
				}
			},
			"required": [
				"isOpen"
			]
		},
		"handler.restaurantVerifyRequest": {
			"type": "object",
			"properties": {
				"verified": {
					"type": "boolean"
				}
			},
			"required": [
				"verified"
			]
		},
		"handler.menuItemRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"price": {
					"type": "number"
				},
				"category": {
					"type": "string"
				},
				"isAvailable": {
					"type": "boolean"
				},
				"imageUrl": {
					"type": "string"
				}
			},
			"required": [
				"name"
			]
		},
		"handler.orderLineRequest": {
			"type": "object",
			"properties": {
				"menuItemId": {
					"type": "string"
				},
				"restaurantId": {
					"type": "string"
				},
				"quantity": {
					"type": "integer"
				}
			},
			"required": [
				"menuItemId"
			]
		},
		"handler.placeOrderRequest": {
			"type": "object",
			"properties": {
				"restaurantId": {
					"type": "string"
				},
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handler.orderLineRequest"
					}
				},
				"transactionRef": {
					"type": "string"
				}
			},
			"required": [
				"items",
				"restaurantId"
			]
		},
		"handler.updateStatusRequest": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"enum": [
						"ACCEPTED",
						"READY",
						"CANCELLED"
					]
				}
			},
			"required": [
				"status"
			]
		},
		"handler.pickupCodeRequest": {
			"type": "object",
			"properties": {
				"pickupCode": {
					"type": "string"
				}
			},
			"required": [
				"pickupCode"
			]
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Campus Orders API",
	Description:      "Order lifecycle, catalog and realtime token endpoints for campus food ordering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
