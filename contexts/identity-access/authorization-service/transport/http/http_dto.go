package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CheckRequest struct {
	ActorID         string `json:"actor_id"`
	ActorRole       string `json:"actor_role"`
	Action          string `json:"action"`
	ResourceType    string `json:"resource_type"`
	ResourceOwnerID string `json:"resource_owner_id,omitempty"`
}

type CheckResponse struct {
	Status string `json:"status"`
	Data   struct {
		Allowed bool   `json:"allowed"`
		Rule    string `json:"rule"`
	} `json:"data"`
}

type CheckBatchRequest struct {
	Checks []CheckRequest `json:"checks"`
}

type CheckBatchResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Allowed bool   `json:"allowed"`
		Rule    string `json:"rule"`
	} `json:"data"`
}
