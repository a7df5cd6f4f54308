package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET(metricsPath, s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	pokemon := api.Group("/pokemon", s.middleware.RateLimit.Handler())
	pokemon.GET("/search", s.searchCatalog)
	pokemon.GET("/:name", s.getDetail)
	pokemon.GET("/:name/evolution", s.getEvolutionChain)
	pokemon.GET("/:name/location", s.getEncounters)
	pokemon.GET("/:name/abilities", s.getAbilities)

	types := api.Group("/types")
	types.GET("", s.listTypes)
	types.GET("/effectiveness", s.typeEffectiveness)
}
