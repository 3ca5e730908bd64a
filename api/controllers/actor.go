package controllers

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nexusfashion/nexus-backend/api/middleware"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	pkgerrors "github.com/nexusfashion/nexus-backend/pkg/errors"
	"github.com/nexusfashion/nexus-backend/pkg/pagination"
)

// actor is the authenticated caller extracted from the request context.
type actor struct {
	UserID   uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

func actorFromContext(ctx context.Context) (actor, error) {
	rawUser := middleware.UserIDFromContext(ctx)
	if rawUser == "" {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseActorRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}

	a := actor{UserID: userID, Role: role}
	if raw := middleware.VendorIDFromContext(ctx); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid vendor id")
		}
		a.VendorID = &vendorID
	}
	return a, nil
}

func parseUUIDParam(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func paginationFromQuery(values map[string][]string) (pagination.Params, error) {
	params := pagination.Params{}
	if raw, ok := values["limit"]; ok && len(raw) > 0 && strings.TrimSpace(raw[0]) != "" {
		value, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil || value <= 0 {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
		}
		params.Limit = value
	}
	if raw, ok := values["cursor"]; ok && len(raw) > 0 {
		params.Cursor = strings.TrimSpace(raw[0])
	}
	return params, nil
}
