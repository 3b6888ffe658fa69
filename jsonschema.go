package formlogic

// FormDefinitionSchema is the JSON Schema every stored form definition must
// satisfy before it is decoded. It checks shape only; semantic leniency
// (dangling logic references, unknown field types) is left to the engine.
const FormDefinitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "fields"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "metadata": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "responseMode": {"enum": ["email", "encrypt"]},
        "version": {"type": "integer", "minimum": 0},
        "adminEmails": {"type": "array", "items": {"type": "string"}}
      }
    },
    "fields": {
      "type": "array",
      "items": {"$ref": "#/$defs/field"}
    },
    "logic": {
      "type": "array",
      "items": {"$ref": "#/$defs/rule"}
    }
  },
  "$defs": {
    "field": {
      "type": "object",
      "required": ["id", "fieldType"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "fieldType": {"type": "string", "minLength": 1},
        "title": {"type": "string"},
        "required": {"type": "boolean"},
        "options": {"type": "array", "items": {"type": "string"}},
        "othersOption": {"type": "boolean"},
        "columns": {"type": "array", "items": {"$ref": "#/$defs/column"}},
        "minimumRows": {"type": "integer", "minimum": 0},
        "maximumRows": {"type": "integer", "minimum": 0},
        "attachmentSizeMB": {"type": "integer", "minimum": 0},
        "ratingSteps": {"type": "integer", "minimum": 0}
      }
    },
    "column": {
      "type": "object",
      "required": ["id", "columnType"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "columnType": {"enum": ["textfield", "dropdown"]},
        "title": {"type": "string"},
        "required": {"type": "boolean"},
        "options": {"type": "array", "items": {"type": "string"}}
      }
    },
    "rule": {
      "type": "object",
      "required": ["logicType", "conditions"],
      "properties": {
        "id": {"type": "string"},
        "logicType": {"enum": ["showFields", "preventSubmit"]},
        "conditions": {"type": "array", "items": {"$ref": "#/$defs/condition"}},
        "show": {"type": "array", "items": {"type": "string"}},
        "preventSubmitMessage": {"type": "string"}
      }
    },
    "condition": {
      "type": "object",
      "required": ["field", "state"],
      "properties": {
        "field": {"type": "string"},
        "state": {"type": "string"},
        "ifValueType": {"enum": ["SingleValue", "MultiValue", "Number"]}
      }
    }
  }
}`
