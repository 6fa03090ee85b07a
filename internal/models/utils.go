package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSONMap represents a JSON object that can be stored in PostgreSQL
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface for JSONMap
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Recipient is one entry of a message recipient list. Recipient lists are
// always decoded into this concrete shape, never into untyped maps.
type Recipient struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type RecipientList []Recipient

func (l RecipientList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(RecipientList{})
	}
	return json.Marshal(l)
}

func (l *RecipientList) Scan(value interface{}) error {
	if value == nil {
		*l = RecipientList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, l)
}

type MessageHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type HeaderList []MessageHeader

func (l HeaderList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(HeaderList{})
	}
	return json.Marshal(l)
}

func (l *HeaderList) Scan(value interface{}) error {
	if value == nil {
		*l = HeaderList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// AttachmentInfo is attachment metadata only; content lives in blob storage.
type AttachmentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	IsInline    bool   `json:"isInline"`
}

type AttachmentList []AttachmentInfo

func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal(AttachmentList{})
	}
	return json.Marshal(l)
}

func (l *AttachmentList) Scan(value interface{}) error {
	if value == nil {
		*l = AttachmentList{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, l)
}
