package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/domain"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getFeePolicy",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/fees",
		Summary:     "Get fee policy",
		Description: "Returns the resolved platform fee percentages",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFeePolicy)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateFeePolicy",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/fees",
		Summary:     "Update fee policy",
		Description: "Sets platform fee percentages. Applies to future transactions only.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateFeePolicy)

	huma.Register(s.api, huma.Operation{
		OperationID: "markPayoutPaid",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/payouts/{id}/paid",
		Summary:     "Mark payout paid",
		Description: "Settles a pending payout after the money has moved externally",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkPayoutPaid)

	huma.Register(s.api, huma.Operation{
		OperationID: "runReconciliation",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reconcile",
		Summary:     "Run reconciliation",
		Description: "Repairs sales whose ownership grant failed after the ledger write",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRunReconciliation)
}

// === DTOs ===

// GetFeePolicyInput contains parameters for reading the fee policy.
type GetFeePolicyInput struct {
	Authorization string `header:"Authorization"`
}

// FeePolicyResponse contains the platform fee percentages.
type FeePolicyResponse struct {
	SaleFeePercent   string `json:"sale_fee_percent" doc:"Percentage withheld from each sale"`
	PayoutFeePercent string `json:"payout_fee_percent" doc:"Percentage withheld from each payout"`
}

// FeePolicyOutput wraps the fee policy response for Huma.
type FeePolicyOutput struct {
	Body FeePolicyResponse
}

// UpdateFeePolicyRequest is the request body for updating fees.
type UpdateFeePolicyRequest struct {
	SaleFeePercent   *string `json:"sale_fee_percent,omitempty" doc:"New sale fee percentage, 0 to 100"`
	PayoutFeePercent *string `json:"payout_fee_percent,omitempty" doc:"New payout fee percentage, 0 to 100"`
}

// UpdateFeePolicyInput wraps the fee update request for Huma.
type UpdateFeePolicyInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateFeePolicyRequest
}

// MarkPayoutPaidInput contains parameters for settling a payout.
type MarkPayoutPaidInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Payout transaction ID"`
}

// MarkPayoutPaidOutput is the empty success response.
type MarkPayoutPaidOutput struct {
	Status int
}

// RunReconciliationInput contains parameters for a reconciliation pass.
type RunReconciliationInput struct {
	Authorization string `header:"Authorization"`
}

// RunReconciliationResponse reports a reconciliation pass.
type RunReconciliationResponse struct {
	Repaired int `json:"repaired" doc:"Number of grants recreated"`
}

// RunReconciliationOutput wraps the reconciliation response for Huma.
type RunReconciliationOutput struct {
	Body RunReconciliationResponse
}

// === Handlers ===

func (s *Server) handleGetFeePolicy(ctx context.Context, input *GetFeePolicyInput) (*FeePolicyOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	policy := s.services.Fees.Policy(ctx)

	return &FeePolicyOutput{
		Body: FeePolicyResponse{
			SaleFeePercent:   policy.SaleFeePercent.String(),
			PayoutFeePercent: policy.PayoutFeePercent.String(),
		},
	}, nil
}

func (s *Server) handleUpdateFeePolicy(ctx context.Context, input *UpdateFeePolicyInput) (*FeePolicyOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if input.Body.SaleFeePercent != nil {
		percent, err := parseMoney(*input.Body.SaleFeePercent, "sale_fee_percent")
		if err != nil {
			return nil, err
		}
		if err := s.services.Fees.SetPercent(ctx, domain.SettingSaleFeePercent, percent); err != nil {
			return nil, err
		}
	}
	if input.Body.PayoutFeePercent != nil {
		percent, err := parseMoney(*input.Body.PayoutFeePercent, "payout_fee_percent")
		if err != nil {
			return nil, err
		}
		if err := s.services.Fees.SetPercent(ctx, domain.SettingPayoutFeePercent, percent); err != nil {
			return nil, err
		}
	}

	policy := s.services.Fees.Policy(ctx)

	return &FeePolicyOutput{
		Body: FeePolicyResponse{
			SaleFeePercent:   policy.SaleFeePercent.String(),
			PayoutFeePercent: policy.PayoutFeePercent.String(),
		},
	}, nil
}

func (s *Server) handleMarkPayoutPaid(ctx context.Context, input *MarkPayoutPaidInput) (*MarkPayoutPaidOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Withdrawal.MarkPaid(ctx, input.ID); err != nil {
		return nil, err
	}

	return &MarkPayoutPaidOutput{Status: http.StatusNoContent}, nil
}

func (s *Server) handleRunReconciliation(ctx context.Context, input *RunReconciliationInput) (*RunReconciliationOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	repaired, err := s.services.Reconciler.Run(ctx)
	if err != nil {
		return nil, err
	}

	return &RunReconciliationOutput{Body: RunReconciliationResponse{Repaired: repaired}}, nil
}
