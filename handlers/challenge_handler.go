package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"fambamAPI/middleware"
	"fambamAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) GetActiveChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challenges, err := h.challengeService.GetActiveChallenges(ctx, clerkID, time.Now())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req services.CompleteChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("CompleteChallenge Handler: Failed to decode request body: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.challengeService.CompleteChallenge(ctx, clerkID, &req, time.Now())
	if err != nil {
		log.Printf("CompleteChallenge Handler: Service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to complete challenge")
		return
	}

	// A nil result means the completion was skipped (weekly cap reached,
	// duplicate submission, or the challenge is no longer active).
	if result == nil {
		respondWithJSON(w, http.StatusOK, map[string]any{
			"completed": false,
		})
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]any{
		"completed": true,
		"result":    result,
	})
}
