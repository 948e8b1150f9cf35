package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get and Named return loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWithWriter(&bytes.Buffer{}, "xml")

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger on a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, "json"), ShouldBeNil)
		defer func() { _ = Init() }()

		Convey("When logging with fields and a request id", func() {
			ctx := WithRequestID(context.Background(), "req-1")
			Get().Info(ctx, "file added", String("name", "a.log"), Int("lines", 3), Error(errors.New("boom")))

			Convey("Then the line carries every field", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "file added")
				So(line["name"], ShouldEqual, "a.log")
				So(line["lines"], ShouldEqual, 3.0)
				So(line["request_id"], ShouldEqual, "req-1")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "shown")

			Convey("Then only the enabled level is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When a named logger writes", func() {
			Named("svc").Info(context.Background(), "hello", String("k", "v"))

			Convey("Then fields are grouped under the name", func() {
				So(strings.Contains(buf.String(), `"svc":{`), ShouldBeTrue)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Level names are parsed case-insensitively", t, func() {
		for _, lvl := range []string{"debug", "INFO", "", "warning", "Error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
	})

	Convey("A context without a request id yields an empty id", t, func() {
		So(RequestID(context.Background()), ShouldEqual, "")
	})
}
