package save

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaText describes the structure a save must have. Every key is
// optional; absent keys are backfilled from defaults after validation.
const schemaText = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "amount": {"type": "number", "minimum": 0},
    "flags": {"type": "object", "additionalProperties": {"type": "boolean"}}
  },
  "properties": {
    "started": {"type": "boolean"},
    "lastTick": {"type": "number"},
    "playtime": {"$ref": "#/definitions/amount"},
    "timeSinceEscape": {"$ref": "#/definitions/amount"},
    "state": {"type": "integer", "minimum": 0},
    "evasionPoints": {"$ref": "#/definitions/amount"},
    "cash": {"type": "number"},
    "xp": {"type": "number"},
    "energySpent": {"$ref": "#/definitions/amount"},
    "energy": {"$ref": "#/definitions/amount"},
    "totalCash": {"$ref": "#/definitions/amount"},
    "upgrades": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0}
    },
    "puzzlesCompleted": {
      "type": "array",
      "maxItems": 2,
      "items": {"type": "boolean"}
    },
    "resetTimes": {"type": "integer", "minimum": 0},
    "corporationUnlocked": {"type": "boolean"},
    "researchUnlocked": {"type": "boolean"},
    "lawyersUnlocked": {"type": "boolean"},
    "strategiesUnlocked": {"type": "boolean"},
    "experience": {"type": "number"},
    "auto": {
      "type": "object",
      "properties": {
        "actions": {"$ref": "#/definitions/flags"},
        "upgrades": {"$ref": "#/definitions/flags"}
      }
    },
    "work": {"type": "number"},
    "meals": {"type": "integer", "minimum": 0},
    "junk": {"type": "number"},
    "tools": {"type": "number"},
    "lawyers": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "bought": {"type": "integer", "minimum": 0},
          "produced": {"$ref": "#/definitions/amount"}
        }
      }
    },
    "strategies": {"type": "number"},
    "strategySize": {"type": "integer", "minimum": 5},
    "startedTrial": {"type": "boolean"},
    "autoLawyers": {"type": "boolean"},
    "trialTime": {"$ref": "#/definitions/amount"},
    "evidence": {"$ref": "#/definitions/amount"},
    "totalNerf": {"type": "number", "minimum": 1}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("save.schema.json", schemaText)
	})
	return schema, schemaErr
}

// Validate checks a decoded JSON value against the save schema.
func Validate(blob any) error {
	s, err := compiled()
	if err != nil {
		return err
	}
	return s.Validate(blob)
}
