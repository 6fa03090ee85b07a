package enum

type EntityType string

const (
	ACCOUNT EntityType = "ACCOUNT"
	FOLDER  EntityType = "FOLDER"
	MESSAGE EntityType = "MESSAGE"
)

func (e EntityType) String() string {
	return string(e)
}
