package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/boltedex/internal/core/domain/catalog"
)

type searchRequest struct {
	Query  string `query:"query" validate:"max=100"`
	Cursor string `query:"cursor" validate:"max=100"`
	Limit  int    `query:"limit"`
}

type nameRequest struct {
	Name string `param:"name" validate:"required,max=100"`
}

type effectivenessRequest struct {
	Attack string   `query:"attack" validate:"required,damagetype"`
	Defend []string `query:"defend" validate:"required,min=1,max=2,dive,damagetype"`
}

func (s *Server) searchCatalog(c echo.Context) error {
	req := searchRequest{Limit: s.config.DefaultPageSize}
	if err := echo.QueryParamsBinder(c).
		String("query", &req.Query).
		String("cursor", &req.Cursor).
		Int("limit", &req.Limit).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	page, err := s.catalogSvc.GetPage(c.Request().Context(), req.Cursor, req.Limit, req.Query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (s *Server) getDetail(c echo.Context) error {
	name, err := s.bindName(c)
	if err != nil {
		return err
	}
	entity, err := s.catalogSvc.GetDetail(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

func (s *Server) getEvolutionChain(c echo.Context) error {
	name, err := s.bindName(c)
	if err != nil {
		return err
	}
	stages, err := s.catalogSvc.GetEvolutionChain(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stages)
}

func (s *Server) getEncounters(c echo.Context) error {
	name, err := s.bindName(c)
	if err != nil {
		return err
	}
	areas, err := s.catalogSvc.GetEncounters(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, areas)
}

func (s *Server) getAbilities(c echo.Context) error {
	name, err := s.bindName(c)
	if err != nil {
		return err
	}
	abilities, err := s.catalogSvc.GetAbilities(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, abilities)
}

func (s *Server) listTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"types": catalog.Types})
}

func (s *Server) typeEffectiveness(c echo.Context) error {
	var req effectivenessRequest
	req.Attack = strings.ToLower(strings.TrimSpace(c.QueryParam("attack")))
	for _, d := range strings.Split(c.QueryParam("defend"), ",") {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			req.Defend = append(req.Defend, d)
		}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"attack":     req.Attack,
		"defend":     req.Defend,
		"multiplier": catalog.Effectiveness(req.Attack, req.Defend),
	})
}

// bindName trims the path name but keeps its case; names are case-sensitive.
func (s *Server) bindName(c echo.Context) (string, error) {
	req := nameRequest{Name: strings.TrimSpace(c.Param("name"))}
	if err := c.Validate(&req); err != nil {
		return "", err
	}
	return req.Name, nil
}
