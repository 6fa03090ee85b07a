package enum

// Importance mirrors the provider's importance enumeration. Missing values
// default to ImportanceNormal, never empty.
type Importance string

const (
	ImportanceLow    Importance = "Low"
	ImportanceNormal Importance = "Normal"
	ImportanceHigh   Importance = "High"
)

func (t Importance) String() string {
	return string(t)
}

type FlagStatus string

const (
	FlagStatusNotFlagged FlagStatus = "NotFlagged"
	FlagStatusComplete   FlagStatus = "Complete"
	FlagStatusFlagged    FlagStatus = "Flagged"
)

func (t FlagStatus) String() string {
	return string(t)
}

type BodyType string

const (
	BodyTypeText BodyType = "Text"
	BodyTypeHTML BodyType = "Html"
)

func (t BodyType) String() string {
	return string(t)
}

type MessageClassification string

const (
	ClassificationFocused MessageClassification = "Focused"
	ClassificationOther   MessageClassification = "Other"
)

func (t MessageClassification) String() string {
	return string(t)
}
