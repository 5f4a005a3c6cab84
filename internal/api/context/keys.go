package context

type Key string

const (
	App    Key = "app"
	Params Key = "params"
)
