package httpadapter

import (
	"context"
	"log/slog"

	"acphealth/contexts/identity-access/authorization-service/application"
	"acphealth/contexts/identity-access/authorization-service/ports"
	httptransport "acphealth/contexts/identity-access/authorization-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CheckHandler(ctx context.Context, req httptransport.CheckRequest) (httptransport.CheckResponse, error) {
	result, err := h.Service.Check(ctx, toInput(req))
	if err != nil {
		return httptransport.CheckResponse{}, err
	}
	resp := httptransport.CheckResponse{Status: "success"}
	resp.Data.Allowed = result.Allowed
	resp.Data.Rule = result.Rule
	return resp, nil
}

func (h Handler) CheckBatchHandler(ctx context.Context, req httptransport.CheckBatchRequest) (httptransport.CheckBatchResponse, error) {
	inputs := make([]ports.CheckInput, 0, len(req.Checks))
	for _, check := range req.Checks {
		inputs = append(inputs, toInput(check))
	}
	results, err := h.Service.CheckBatch(ctx, inputs)
	if err != nil {
		return httptransport.CheckBatchResponse{}, err
	}
	resp := httptransport.CheckBatchResponse{Status: "success"}
	for _, result := range results {
		resp.Data = append(resp.Data, struct {
			Allowed bool   `json:"allowed"`
			Rule    string `json:"rule"`
		}{Allowed: result.Allowed, Rule: result.Rule})
	}
	return resp, nil
}

func toInput(req httptransport.CheckRequest) ports.CheckInput {
	return ports.CheckInput{
		ActorID:         req.ActorID,
		ActorRole:       req.ActorRole,
		Action:          req.Action,
		ResourceType:    req.ResourceType,
		ResourceOwnerID: req.ResourceOwnerID,
	}
}
