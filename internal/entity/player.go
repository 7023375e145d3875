package entity

const (
	DefaultPlayerOneName = "Player One"
	DefaultPlayerTwoName = "Player Two"
)

type Player struct {
	Name  string `json:"name"`
	Token Cell   `json:"token"`
}

// NewPlayer falls back to fallbackName when name is empty.
func NewPlayer(name, fallbackName string, token Cell) Player {
	if name == "" {
		name = fallbackName
	}

	return Player{
		Name:  name,
		Token: token,
	}
}
