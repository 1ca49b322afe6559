// Package testutil provides a shared admin API document for package tests.
package testutil

import (
	"testing"

	"github.com/kolah/oinkctl/internal/loader"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/stretchr/testify/require"
)

// AdminSpec is a trimmed configuration API document exercising tags,
// path parameters, allOf composition, array items and JSON Patch bodies.
const AdminSpec = `
openapi: "3.0.1"
info:
  title: Admin Config API
  version: "1.0.0"
servers:
  - url: https://admin.example.com/api/v1
tags:
  - name: Config
  - name: OAuth - OpenID Connect - Clients
  - name: OAuth - Scopes
  - name: Logging
  - name: developers
  - name: Hidden
    x-cli-ignore: true
security:
  - oauth2:
      - https://example.com/config/read-all
paths:
  /config/scripts:
    get:
      tags:
        - Config
      operationId: get-config-scripts
      summary: Gets a list of custom scripts.
      deprecated: true
      security:
        - oauth2:
            - https://example.com/config/scripts.readonly
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: "#/components/schemas/CustomScript"
  /config/hidden:
    get:
      tags:
        - Config
      operationId: get-hidden-config
      summary: Internal endpoint
      x-cli-ignore: true
      responses:
        "200":
          description: OK
  /config/noid:
    get:
      tags:
        - Config
      summary: Operation without an id
      responses:
        "200":
          description: OK
  /untagged:
    get:
      operationId: get-untagged
      responses:
        "200":
          description: OK
  /clients:
    get:
      tags:
        - OAuth - OpenID Connect - Clients
      operationId: get-oauth-openid-clients
      summary: Gets list of OpenID Connect clients.
      parameters:
        - name: limit
          in: query
          schema:
            type: integer
            default: 50
        - name: pattern
          in: query
          schema:
            type: string
        - name: sortOrder
          in: query
          schema:
            type: string
            enum:
              - ascending
              - descending
      security:
        - oauth2:
            - https://example.com/config/openid/clients.readonly
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: "#/components/schemas/Client"
    post:
      tags:
        - OAuth - OpenID Connect - Clients
      operationId: post-oauth-openid-client
      summary: Create new OpenId Connect client
      security:
        - oauth2:
            - https://example.com/config/openid/clients.write
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Client"
      responses:
        "201":
          description: Created
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Client"
  /clients/{inum}:
    get:
      tags:
        - OAuth - OpenID Connect - Clients
      operationId: get-oauth-openid-clients-by-inum
      summary: Get OpenId Connect Client by Inum
      parameters:
        - name: inum
          in: path
          required: true
          schema:
            type: string
      security:
        - oauth2:
            - https://example.com/config/openid/clients.readonly
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Client"
    put:
      tags:
        - OAuth - OpenID Connect - Clients
      operationId: put-oauth-openid-client
      summary: Update OpenId Connect client.
      x-cli-getdata: get-oauth-openid-clients-by-inum
      security:
        - oauth2:
            - https://example.com/config/openid/clients.write
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Client"
      responses:
        "200":
          description: OK
    delete:
      tags:
        - OAuth - OpenID Connect - Clients
      operationId: delete-oauth-openid-client-by-inum
      summary: Delete OpenId Connect client.
      security:
        - oauth2:
            - https://example.com/config/openid/clients.delete
      responses:
        "204":
          description: No Content
    patch:
      tags:
        - OAuth - OpenID Connect - Clients
      operationId: patch-oauth-openid-client-by-inum
      summary: Patch OpenId Connect client.
      security:
        - oauth2:
            - https://example.com/config/openid/clients.write
      requestBody:
        content:
          application/json-patch+json:
            schema:
              type: array
              items:
                $ref: "#/components/schemas/PatchRequest"
      responses:
        "200":
          description: OK
  /scopes:
    post:
      tags:
        - OAuth - Scopes
      operationId: post-oauth-scopes
      description: Create Scope.
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Scope"
      responses:
        "201":
          description: Created
  /logging:
    get:
      tags:
        - Logging
      operationId: get-config-logging
      summary: Returns logging settings.
      responses:
        "200":
          description: OK
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Logging"
    put:
      tags:
        - Logging
      operationId: put-config-logging
      summary: Updates logging settings.
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/Logging"
      responses:
        "200":
          description: OK
  /developers/info:
    get:
      tags:
        - developers
      operationId: get-developer-info
      summary: Developer information
      responses:
        "200":
          description: OK
components:
  securitySchemes:
    oauth2:
      type: oauth2
      flows:
        clientCredentials:
          tokenUrl: https://admin.example.com/token
          scopes:
            https://example.com/config/read-all: Read everything
  schemas:
    CustomScript:
      type: object
      properties:
        inum:
          type: string
        name:
          type: string
        enabled:
          type: boolean
    Attribute:
      type: object
      properties:
        name:
          type: string
        values:
          type: array
          items:
            type: string
    ClientAttributes:
      type: object
      properties:
        runIntrospectionScriptBeforeJwtCreation:
          type: boolean
        additionalAudience:
          type: array
          items:
            type: string
    Client:
      type: object
      required:
        - redirectUris
      properties:
        dn:
          type: string
        inum:
          type: string
        displayName:
          type: string
        redirectUris:
          type: array
          items:
            type: string
        grantTypes:
          type: array
          items:
            type: string
            enum:
              - authorization_code
              - client_credentials
              - refresh_token
        accessTokenLifetime:
          type: integer
        disabled:
          type: boolean
          default: false
        attributes:
          $ref: "#/components/schemas/ClientAttributes"
        customAttributes:
          type: array
          items:
            $ref: "#/components/schemas/Attribute"
    BaseScope:
      type: object
      required:
        - id
      properties:
        dn:
          type: string
        inum:
          type: string
        id:
          type: string
        description:
          type: string
    Scope:
      allOf:
        - $ref: "#/components/schemas/BaseScope"
        - type: object
          properties:
            scopeType:
              type: string
              enum:
                - openid
                - oauth
                - uma
            description:
              type: string
              title: Scope description
    Logging:
      type: object
      properties:
        loggingLevel:
          type: string
          enum:
            - TRACE
            - DEBUG
            - INFO
        enabledOAuthAuditLogging:
          type: boolean
        httpLoggingExcludePaths:
          type: array
          items:
            type: string
    PatchRequest:
      type: object
      required:
        - op
        - path
      properties:
        op:
          type: string
          enum:
            - add
            - remove
            - replace
            - move
            - copy
            - test
        path:
          type: string
        value:
          type: object
`

// LoadSpec parses AdminSpec into the engine model.
func LoadSpec(t testing.TB) *model.Spec {
	t.Helper()
	result, err := loader.LoadBytes([]byte(AdminSpec))
	require.NoError(t, err)
	spec, err := loader.Transform(result)
	require.NoError(t, err)
	return spec
}
