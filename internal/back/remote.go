package back

import (
	"context"
	"fmt"
	"ratemycompany/pkg/supabase"
)

// RemoteRecorder records matchups through the record_matchup procedure of a
// managed Postgres store instead of the local database.
type RemoteRecorder struct {
	api *supabase.API
}

func NewRemoteRecorder(api *supabase.API) *RemoteRecorder {
	return &RemoteRecorder{api: api}
}

func (r *RemoteRecorder) RecordMatchup(ctx context.Context, req MatchupRequest) ([]RatingRow, error) {
	params := map[string]interface{}{
		"company_a":    req.CompanyA,
		"company_b":    req.CompanyB,
		"result":       req.Result.String(),
		"submitted_by": req.SubmittedBy,
	}

	var rows []RatingRow
	if err := r.api.RPC(ctx, "record_matchup", params, &rows); err != nil {
		return nil, fmt.Errorf("record_matchup: %w", err)
	}

	return rows, nil
}
