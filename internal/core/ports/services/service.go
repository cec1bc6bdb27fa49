package services

// ServiceContainer holds instances of all the application services.
// It is built once at startup and passed to the CLI commands and the ops server.
type ServiceContainer struct {
	Posting  PostingSvcFacade
	Reversal ReversalSvc
	Period   PeriodSvcFacade
}
