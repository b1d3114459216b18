package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sparkify/sparkify-etl/logger"
)

var _ = Describe("Logger", func() {
	var log *logger.LoggerImpl
	var logOutput *bytes.Buffer

	BeforeEach(func() {
		log = logger.NewLoggerWithFormatter("test-service", "debug", true, &logrus.JSONFormatter{})
		logOutput = bytes.NewBufferString("")
		log.SetOutput(logOutput)
	})

	decode := func() map[string]interface{} {
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	It("Should have `test-service` as service name", func() {
		log.Info("Testing")
		Expect(decode()["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		log.Info("Testing")
		Expect(decode()["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		log.Warn("Testing")
		Expect(decode()["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		log.Error("Testing")
		actual := decode()
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		log.Info("Testing")
		Expect(decode()["msg"]).To(Equal("Testing"))
	})

	It("Should carry fields added by WithField", func() {
		log.WithField("run", "abc123").Info("Testing")
		actual := decode()
		Expect(actual["run"]).To(Equal("abc123"))
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should drop lines below the configured level", func() {
		quiet := logger.NewLoggerWithFormatter("test-service", "warn", false, &logrus.JSONFormatter{})
		quiet.SetOutput(logOutput)
		quiet.Info("hidden")
		Expect(logOutput.Len()).To(Equal(0))
	})
})
