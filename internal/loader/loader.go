package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

type Result struct {
	Document libopenapi.Document
	Model    *libopenapi.DocumentModel[v3.Document]
	Version  string
	Warnings []string
	RawData  []byte
}

func LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	config := documentConfig()
	config.BasePath = filepath.Dir(absPath)
	config.AllowFileReferences = true

	return loadWithConfig(data, config)
}

// LoadBytes parses an in-memory document. File references are not followed.
func LoadBytes(data []byte) (*Result, error) {
	return loadWithConfig(data, documentConfig())
}

// documentConfig tolerates circular references; the schema resolver reports
// them when an operation actually needs the schema.
func documentConfig() *datamodel.DocumentConfiguration {
	return &datamodel.DocumentConfiguration{
		IgnorePolymorphicCircularReferences: true,
		IgnoreArrayCircularReferences:       true,
	}
}

func loadWithConfig(data []byte, config *datamodel.DocumentConfiguration) (*Result, error) {
	var doc libopenapi.Document
	var err error

	if config != nil {
		doc, err = libopenapi.NewDocumentWithConfiguration(data, config)
	} else {
		doc, err = libopenapi.NewDocument(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing OpenAPI document: %w", err)
	}

	version := doc.GetVersion()
	if !strings.HasPrefix(version, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version: %s (only 3.x supported)", version)
	}

	result := &Result{
		Document: doc,
		Version:  version,
		RawData:  data,
	}

	model, err := doc.BuildV3Model()
	if model == nil {
		if err == nil {
			err = fmt.Errorf("no model produced")
		}
		return nil, fmt.Errorf("building OpenAPI model: %w", err)
	}
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Model = model

	return result, nil
}
