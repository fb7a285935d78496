package routes

import (
	"usuarios-service/handlers"
	"usuarios-service/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func SetupRoutes(log *zap.SugaredLogger, userHandler *handlers.UserHandler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", middleware.ErrorHandler(log, userHandler.RootHandler)).Methods("GET")
	router.HandleFunc("/health", middleware.ErrorHandler(log, userHandler.HealthHandler)).Methods("GET")

	for _, prefix := range []string{"/usuarios", "/usuarios/"} {
		router.HandleFunc(prefix, middleware.ErrorHandler(log, userHandler.CreateHandler)).Methods("POST")
		router.HandleFunc(prefix, middleware.ErrorHandler(log, userHandler.ListHandler)).Methods("GET")
	}

	users := router.PathPrefix("/usuarios").Subrouter()
	users.HandleFunc("/login", middleware.ErrorHandler(log, userHandler.LoginHandler)).Methods("POST")
	users.HandleFunc("/{username}", middleware.ErrorHandler(log, userHandler.GetHandler)).Methods("GET")
	users.HandleFunc("/{username}", middleware.ErrorHandler(log, userHandler.UpdateHandler)).Methods("PUT")
	users.HandleFunc("/{username}", middleware.ErrorHandler(log, userHandler.DeleteHandler)).Methods("DELETE")

	return router
}
