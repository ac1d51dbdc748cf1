package app

import (
	"context"
	"log/slog"

	"github.com/StayPulseHQ/staypulse/internal/ingestion/adapters/classifier"
	"github.com/StayPulseHQ/staypulse/internal/ingestion/domain"
)

// resolveTriage turns a raw classification result into a department and
// priority the tenant can actually route. The department is snapped to the
// tenant's enabled list; the priority must be one of the known values. Any
// classification error, timeout or malformed field resolves to the
// deterministic fallback {default enabled department, normal}.
func resolveTriage(ctx context.Context, logger *slog.Logger, tenant *domain.Tenant, cls *classifier.Classification, clsErr error) (string, domain.Priority) {
	department := tenant.DefaultDepartment()
	priority := domain.PriorityNormal

	if clsErr != nil {
		logger.WarnContext(ctx, "Classification failed, using fallback triage",
			"error", clsErr,
			"tenant_id", tenant.ID,
			"fallback_department", department,
		)
		classifierFallbackCounter.Inc()
		return department, priority
	}

	fellBack := false
	if cls.Department != "" && tenant.DepartmentEnabled(cls.Department) {
		department = cls.Department
	} else {
		fellBack = true
	}

	if domain.ValidPriority(cls.Priority) {
		priority = cls.Priority
	} else if cls.Priority != "" {
		fellBack = true
	}

	if fellBack {
		logger.InfoContext(ctx, "Classification result partially snapped to tenant defaults",
			"tenant_id", tenant.ID,
			"returned_department", cls.Department,
			"returned_priority", string(cls.Priority),
			"department", department,
			"priority", string(priority),
		)
		classifierFallbackCounter.Inc()
	}
	return department, priority
}
