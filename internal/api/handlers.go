package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"stakeVault/internal/chain"
	"stakeVault/internal/host"
	"stakeVault/internal/model"
)

const maxEnvelopeBytes = 64 << 10

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := c.exec.Balance(r.Context(), common.Address{}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "errored", "error": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSubmit executes a signed instruction envelope.
// POST /v1/instructions
func (c *Controller) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	dec.DisallowUnknownFields()

	var env host.Envelope
	if err := dec.Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode envelope: %v", err))
		return
	}
	if err := c.validate.Struct(env); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := c.exec.Submit(r.Context(), env)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

type poolResponse struct {
	Pool          model.Pool `json:"pool"`
	RewardReserve uint64     `json:"reward_reserve"`
}

// GET /v1/pool
func (c *Controller) HandlePool(w http.ResponseWriter, r *http.Request) {
	pool, err := c.exec.Pool(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolResponse{Pool: pool, RewardReserve: pool.RewardReserve()})
}

// HandlePosition returns the stake info of one position.
// GET /v1/positions/{id}
func (c *Controller) HandlePosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}
	info, err := c.exec.StakeInfo(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GET /v1/owners/{owner}/positions
func (c *Controller) HandleOwnerPositions(w http.ResponseWriter, r *http.Request) {
	owner, err := chain.ParseAddress(mux.Vars(r)["owner"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	positions, err := c.exec.Positions(r.Context(), owner)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// HandleAccess derives a holder's tier. With min set it also reports whether
// the holder meets that tier.
// GET /v1/access/{owner}?min=<tier>
func (c *Controller) HandleAccess(w http.ResponseWriter, r *http.Request) {
	owner, err := chain.ParseAddress(mux.Vars(r)["owner"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var view host.AccessView
	if minTier := r.URL.Query().Get("min"); minTier != "" {
		var required model.Tier
		if err := required.UnmarshalText([]byte(minTier)); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		view, err = c.exec.VerifyHolder(r.Context(), owner, required)
	} else {
		view, err = c.exec.Access(r.Context(), owner)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GET /v1/audit
func (c *Controller) HandleAudit(w http.ResponseWriter, r *http.Request) {
	report, err := c.exec.Audit(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleEvents pages through the event journal.
// GET /v1/events?after=<seq>&limit=<n>
func (c *Controller) HandleEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	after, err := parseUintParam(query.Get("after"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid after")
		return
	}
	limit, err := parseUintParam(query.Get("limit"), 100)
	if err != nil || limit == 0 || limit > 1000 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}

	records, err := c.exec.Events(r.Context(), after, int(limit))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func parseUintParam(value string, fallback uint64) (uint64, error) {
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseUint(value, 10, 64)
}
