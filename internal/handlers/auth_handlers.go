package handlers

import (
	"errors"
	"net/http"

	"github.com/argusia/argus/internal/auth"
	"github.com/argusia/argus/internal/constants"
	"github.com/argusia/argus/internal/models"
	"github.com/argusia/argus/internal/utils"
)

// AuthHandler exchanges the operator API key for bearer tokens
type AuthHandler struct {
	keys   KeyVerifier
	tokens auth.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(keys KeyVerifier, tokens auth.TokenIssuer) *AuthHandler {
	if keys == nil {
		panic("keys cannot be nil")
	}
	if tokens == nil {
		panic("tokens cannot be nil")
	}
	return &AuthHandler{
		keys:   keys,
		tokens: tokens,
	}
}

// IssueToken verifies the API key in the body and returns an access token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	if err := h.keys.Verify(req.APIKey); err != nil {
		utils.LogAuth("token_exchange", constants.OperatorSubject, false, err.Error())
		if errors.Is(err, auth.ErrAPIKeyNotConfigured) {
			utils.Unauthorized(w, constants.MsgAuthRequired)
			return
		}
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	issued, err := h.tokens.GenerateToken(constants.OperatorSubject)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	utils.LogAuth("token_exchange", constants.OperatorSubject, true, "")
	utils.JSON(w, http.StatusOK, issued)
}
