package archive

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gtcs8803/submit/internal/audit"
	"github.com/gtcs8803/submit/internal/upload"
)

var tracer = otel.Tracer("github.com/gtcs8803/submit/internal/archive")

// Copies written artifacts to object storage
type Archiver struct {
	uploader upload.Uploader
	trail    *audit.Trail
}

func New(u upload.Uploader, trail *audit.Trail) *Archiver {
	if trail == nil {
		trail = audit.Discard
	}

	return &Archiver{uploader: u, trail: trail}
}

// Uploads the artifact at `path` by content hash and returns the object name
func (a *Archiver) Archive(ctx context.Context, auditContext audit.Context, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "Archiver.Archive", trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	objectName, err := upload.HashedFile(ctx, a.uploader, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload artifact")
		return "", err
	}

	location, err := a.uploader.Location(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get location")
		return "", err
	}

	span.AddEvent("generating audit log message")
	a.trail.LogArtifactArchived(auditContext, location, objectName, path)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "archived artifact")
	return objectName, nil
}
