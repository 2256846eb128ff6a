package sqlinline

// All returns every inline query keyed by name.
func All() map[string]string {
	return map[string]string{
		"QUpsertGenerationJob":        QUpsertGenerationJob,
		"QSelectGenerationJob":        QSelectGenerationJob,
		"QSelectActiveGenerationJobs": QSelectActiveGenerationJobs,
		"QSelectIntegrationToken":     QSelectIntegrationToken,
		"QUpsertIntegrationToken":     QUpsertIntegrationToken,
	}
}
