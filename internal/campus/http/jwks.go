package http

import (
	"net/http"

	"github.com/aussiebroadwan/campus/pkg/campussdk"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
)

// JWKSHandler exposes the keys that verify ticket tokens, so door scanners
// can check tickets offline.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify ticket tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	campussdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, campussdk.JWKSResponse(keys.PublicJWKS()))
	}
}
