package api

import (
	apiutil "github.com/absmach/supermq/api/http/util"

	"github.com/absmach/fedstats/round"
)

type roundReq struct {
	round.Round `json:",inline"`
}

func (r *roundReq) validate() error {
	if len(r.SelectedFeatures) == 0 || len(r.Methods) == 0 {
		return apiutil.ErrMissingName
	}

	return nil
}

type entityReq struct {
	id string
}

func (e *entityReq) validate() error {
	if e.id == "" {
		return apiutil.ErrMissingID
	}

	return nil
}

type listEntityReq struct {
	offset, limit uint64
}

func (e *listEntityReq) validate() error {
	return nil
}

type ingestReplyReq struct {
	data []byte
}

func (i *ingestReplyReq) validate() error {
	if len(i.data) == 0 {
		return apiutil.ErrEmptyList
	}

	return nil
}
