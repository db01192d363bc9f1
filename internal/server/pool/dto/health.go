package dto

type HealthResponse struct {
	Status  string `json:"status"`
	Workers int    `json:"workers"`
	Dynamic int    `json:"dynamic"`
}
