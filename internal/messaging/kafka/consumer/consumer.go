package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go-workforce/internal/erpsync"
	"go-workforce/internal/events"
	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/tenant"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeERPSync drains the ERP workforce stream and applies each event to
// the tenant it belongs to. Permanently unprocessable events are committed
// and skipped; everything else stays uncommitted so redelivery retries it.
func ConsumeERPSync(
	ctx context.Context,
	reader *kafkago.Reader,
	registry tenant.Registry,
	syncService erpsync.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.erp_sync")
	log.Info("erp sync consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("erp sync consumer stopped")
				return
			}
			log.Error("fetch erp sync message failed", zap.Error(err))
			continue
		}

		var envelope events.ERPSyncEnvelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			log.Error("decode erp sync envelope failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := applyEnvelope(ctx, registry, syncService, log, envelope); err != nil {
			if isPermanentFailure(err) {
				log.Warn("erp sync event skipped",
					zap.String("event_type", envelope.EventType),
					zap.String("event_id", envelope.EventID),
					zap.String("company_id", envelope.CompanyID),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("apply erp sync event failed",
				zap.String("event_type", envelope.EventType),
				zap.String("event_id", envelope.EventID),
				zap.String("company_id", envelope.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit erp sync message failed", zap.Error(err))
			continue
		}

		log.Debug("erp sync event applied",
			zap.String("event_type", envelope.EventType),
			zap.String("event_id", envelope.EventID),
			zap.String("company_id", envelope.CompanyID),
		)
	}
}

func applyEnvelope(
	ctx context.Context,
	registry tenant.Registry,
	syncService erpsync.Service,
	log *zap.Logger,
	envelope events.ERPSyncEnvelope,
) error {
	h, err := registry.Resolve(ctx, envelope.CompanyID)
	if err != nil {
		return err
	}

	switch envelope.EventType {
	case events.ERPAttendancePunch:
		var payload erpsync.AttendancePayload
		if err := decodePayload(envelope, &payload); err != nil {
			return err
		}
		_, err := syncService.IngestAttendance(ctx, h, payload)
		return err

	case events.ERPPlanningSlotUpsert:
		var payload erpsync.ShiftPayload
		if err := decodePayload(envelope, &payload); err != nil {
			return err
		}
		_, err := syncService.IngestShift(ctx, h, payload)
		return err

	case events.ERPPlanningSlotDeleted:
		var payload erpsync.ShiftDeletePayload
		if err := decodePayload(envelope, &payload); err != nil {
			return err
		}
		return syncService.IngestShiftDelete(ctx, h, payload)

	case events.ERPPOSSession:
		var payload erpsync.POSSessionPayload
		if err := decodePayload(envelope, &payload); err != nil {
			return err
		}
		_, err := syncService.IngestPOSSession(ctx, h, payload)
		return err

	case events.ERPPOSOrder:
		var payload erpsync.POSOrderPayload
		if err := decodePayload(envelope, &payload); err != nil {
			return err
		}
		_, err := syncService.IngestPOSOrder(ctx, h, payload)
		return err

	default:
		log.Warn("unknown erp sync event type",
			zap.String("event_type", envelope.EventType),
			zap.String("event_id", envelope.EventID),
		)
		return nil
	}
}

func decodePayload(envelope events.ERPSyncEnvelope, out any) error {
	if err := json.Unmarshal(envelope.Payload, out); err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidInput, "Malformed event payload", http.StatusBadRequest)
	}
	return nil
}

// isPermanentFailure reports whether retrying the event can never succeed:
// unknown tenants, unmapped branches, malformed payloads. Transient
// failures, store or ERP outages included, are left uncommitted.
func isPermanentFailure(err error) bool {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus >= 400 && appErr.HTTPStatus < 500
	}
	return false
}
