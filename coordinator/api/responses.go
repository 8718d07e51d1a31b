package api

import (
	"net/http"

	"github.com/absmach/supermq"

	"github.com/absmach/fedstats/node"
	"github.com/absmach/fedstats/round"
)

var (
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*listRoundResponse)(nil)
	_ supermq.Response = (*listNodeResponse)(nil)
	_ supermq.Response = (*ingestReplyResponse)(nil)
)

type roundResponse struct {
	round.Round
	created bool
	deleted bool
}

func (r roundResponse) Code() int {
	if r.created {
		return http.StatusCreated
	}
	if r.deleted {
		return http.StatusNoContent
	}

	return http.StatusOK
}

func (r roundResponse) Headers() map[string]string {
	if r.created {
		return map[string]string{
			"Location": "/rounds/" + r.ID,
		}
	}

	return map[string]string{}
}

func (r roundResponse) Empty() bool {
	return r.deleted
}

type listRoundResponse struct {
	round.RoundPage
}

func (l listRoundResponse) Code() int {
	return http.StatusOK
}

func (l listRoundResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listRoundResponse) Empty() bool {
	return false
}

type listNodeResponse struct {
	node.NodePage
}

func (l listNodeResponse) Code() int {
	return http.StatusOK
}

func (l listNodeResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listNodeResponse) Empty() bool {
	return false
}

type ingestReplyResponse struct{}

func (i ingestReplyResponse) Code() int {
	return http.StatusAccepted
}

func (i ingestReplyResponse) Headers() map[string]string {
	return map[string]string{}
}

func (i ingestReplyResponse) Empty() bool {
	return true
}
