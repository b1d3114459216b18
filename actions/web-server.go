package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/helper"
	"github.com/sparkify/sparkify-etl/logger"
)

const (
	urlContextTasks = "/tasks"
)

type WebServerConfig struct {
	Run    RunConfig
	Scheme string `errorTxt:"scheme" mandatory:"yes"`
	Addr   net.IP `errorTxt:"address" mandatory:"no"`
	Port   int    `errorTxt:"port" mandatory:"yes"`
}

// RunWebServer serves task requests until /stop is called or SIGINT arrives.
func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	var s *session
	s, err := newSessionWithExit(&web.Run, func() {
		if s != nil {
			s.close()
		}
	})
	if err != nil {
		return err
	}
	defer s.close()
	tasks := NewTaskRunner(s.log, s.factory)
	// Start the web server.
	srv, chanStopServer := runServer(s.log, web, tasks)
	// Block & wait for completion.
	return waitForServer(s.log, srv, chanStopServer)
}

// newRouter returns the routes served by the web server.
func newRouter(log logger.Logger, tasks *TaskRunner, chanStopServer chan string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stop", GetHandlerStopServer(log, chanStopServer)).Methods(http.MethodGet)
	r.Path("/health").HandlerFunc(GetHandlerHealth(log)).Methods(http.MethodGet)
	r.Path(urlContextTasks + "/{task}").HandlerFunc(GetHandlerTask(log, tasks)).Methods(http.MethodPost)
	return r
}

// runServer starts a web server and returns:
// 1) the server; and
// 2) a channel that can be used to stop the web server
func runServer(log logger.Logger, web *WebServerConfig, tasks *TaskRunner) (*http.Server, chan string) {
	chanStopServer := make(chan string, 1)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%v:%v", web.Addr, web.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(log, tasks, chanStopServer),
	}
	// Run HTTP server non-blocking.
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Fatal(err)
			}
		}
	}()
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(web.Scheme), web.Addr, web.Port))
	return srv, chanStopServer
}

func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string) error {
	// Accept graceful shutdowns when quit via SIGINT (Ctrl+C).
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt)
	defer signal.Stop(chanOS)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	log.Info("Shutting down web server...")
	// Running tasks hold the connection so wait for them up to the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return srv.Shutdown(ctx)
}
