package domain

type Permission struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
