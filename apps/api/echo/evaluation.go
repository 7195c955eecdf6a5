package echoapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
)

const uploadField = "file"

var (
	maxUploadBytes int64 = 10 << 20 // mockable

	errUploadTooLarge = errors.New("file exceeds the upload size limit")
)

type evaluationApi struct {
	svc    *evaluation.Service
	logger core.Logger
}

func registerEvaluationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc *evaluation.Service,
	logger core.Logger,
) {
	api := evaluationApi{svc: svc, logger: logger}

	eg := g.Group("/evaluations", jwt)
	eg.GET("", api.list)
	eg.POST("", api.create, facilitatorMiddleware(auth))
	eg.GET("/stats", api.stats)
	eg.GET("/export", api.export)

	// admin endpoints
	eg.POST("/import", api.importFile, adminMiddleware(auth))
	eg.GET("/backup", api.backup, adminMiddleware(auth))
	eg.POST("/restore", api.restore, adminMiddleware(auth))
	eg.DELETE("", api.clear, adminMiddleware(auth))
}

// Handlers

func (api *evaluationApi) list(ctx echo.Context) error {
	records, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing evaluation records")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *evaluationApi) create(ctx echo.Context) error {
	var data evaluation.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	rec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating evaluation record")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *evaluationApi) stats(ctx echo.Context) error {
	summary, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing evaluation records")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// export downloads the collection; an empty collection answers with an info message instead.
func (api *evaluationApi) export(ctx echo.Context) error {
	format, err := evaluation.ParseFormat(bindFormat(ctx))
	if err != nil {
		return err
	}

	exp, err := api.svc.Export(ctx.Request().Context(), format)
	if errors.Is(err, evaluation.ErrNothingToExport) {
		return ctx.JSON(http.StatusOK, evaluation.ExportMessage(exp, err))
	}
	if err != nil {
		return errors.Wrap(err, "exporting evaluation records")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exp.Filename))
	return ctx.Blob(http.StatusOK, exp.ContentType+"; charset=utf-8", exp.Content)
}

func (api *evaluationApi) importFile(ctx echo.Context) error {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: uploadField, Error: "this field is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer src.Close()

	data, err := readUpload(src, fh.Size)
	if err != nil {
		return &evaluation.ImportError{Stage: evaluation.StageReading, Err: err}
	}
	res, err := api.svc.Import(ctx.Request().Context(), fh.Filename, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "importing evaluation records")
	}
	return ctx.JSON(http.StatusOK, ImportResponse{
		Message:  evaluation.ImportMessage(res, nil),
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Total:    res.Total,
	})
}

func (api *evaluationApi) backup(ctx echo.Context) error {
	data, err := api.svc.BackupJSON(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "backing up evaluation records")
	}
	filename := "convivencia-backup-" + core.ISODate(nowFunc()) + ".json"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

func (api *evaluationApi) restore(ctx echo.Context) error {
	data, err := readUpload(ctx.Request().Body, ctx.Request().ContentLength)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, evaluation.Message{Type: evaluation.MessageError, Text: "Restore failed: " + err.Error()})
	}

	n, err := api.svc.RestoreJSON(ctx.Request().Context(), data)
	if err != nil {
		if evaluation.IsImportInputError(err) {
			return ctx.JSON(http.StatusBadRequest, evaluation.Message{Type: evaluation.MessageError, Text: "Restore failed: " + err.Error()})
		}
		return errors.Wrap(err, "restoring evaluation records")
	}
	return ctx.JSON(http.StatusOK, evaluation.Message{
		Type: evaluation.MessageSuccess,
		Text: fmt.Sprintf("Restored %d evaluation records", n),
	})
}

func (api *evaluationApi) clear(ctx echo.Context) error {
	if err := api.svc.Clear(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "clearing evaluation records")
	}
	api.logger.Info("evaluation records cleared via API")
	return ctx.NoContent(http.StatusNoContent)
}

// readUpload reads a whole upload; input over maxUploadBytes is rejected, never truncated.
// size is the declared length, -1 when unknown.
func readUpload(r io.Reader, size int64) ([]byte, error) {
	if size > maxUploadBytes {
		return nil, &evaluation.ReadError{Err: errUploadTooLarge}
	}
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, &evaluation.ReadError{Err: err}
	}
	if int64(len(data)) > maxUploadBytes {
		return nil, &evaluation.ReadError{Err: errUploadTooLarge}
	}
	return data, nil
}

type ImportResponse struct {
	evaluation.Message
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}
