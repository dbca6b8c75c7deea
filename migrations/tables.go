package migrations

import "fmt"

// createPatternCatalogsTable creates the pattern_catalogs table
func createPatternCatalogsTable() Migration {
	return Migration{
		Name:        "create_pattern_catalogs_table",
		Description: "Creates the pattern_catalogs table",
		TableName:   "pattern_catalogs",
		Statements: func(d Dialect) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS pattern_catalogs (
					version VARCHAR(32) PRIMARY KEY,
					definition TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				)
			`}
		},
	}
}

// createDatasetsTable creates the datasets table
func createDatasetsTable() Migration {
	return Migration{
		Name:        "create_datasets_table",
		Description: "Creates the datasets table",
		TableName:   "datasets",
		Statements: func(d Dialect) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS datasets (
					dataset_id VARCHAR(36) PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					source VARCHAR(16) NOT NULL,
					posts_count INTEGER NOT NULL DEFAULT 0,
					comments_count INTEGER NOT NULL DEFAULT 0,
					actual_suspicious INTEGER NULL,
					created_at TIMESTAMP NOT NULL
				)
			`,
				`CREATE INDEX idx_datasets_created_at ON datasets(created_at)`,
			}
		},
	}
}

// createAnalysisSessionsTable creates the analysis_sessions table
func createAnalysisSessionsTable() Migration {
	return Migration{
		Name:        "create_analysis_sessions_table",
		Description: "Creates the analysis_sessions table",
		TableName:   "analysis_sessions",
		Statements: func(d Dialect) []string {
			return []string{`
				CREATE TABLE IF NOT EXISTS analysis_sessions (
					analysis_id VARCHAR(36) PRIMARY KEY,
					dataset_id VARCHAR(36) NOT NULL,
					status VARCHAR(16) NOT NULL,
					total_comments INTEGER NOT NULL DEFAULT 0,
					suspicious_count INTEGER NOT NULL DEFAULT 0,
					accuracy DOUBLE PRECISION NOT NULL DEFAULT 0,
					label_source VARCHAR(32),
					catalog_version VARCHAR(32) NOT NULL,
					error_message TEXT,
					created_at TIMESTAMP NOT NULL,
					completed_at TIMESTAMP NULL,
					CONSTRAINT fk_sessions_dataset FOREIGN KEY (dataset_id) REFERENCES datasets(dataset_id) ON DELETE CASCADE,
					CONSTRAINT fk_sessions_catalog FOREIGN KEY (catalog_version) REFERENCES pattern_catalogs(version)
				)
			`,
				`CREATE INDEX idx_sessions_dataset_id ON analysis_sessions(dataset_id)`,
				`CREATE INDEX idx_sessions_created_at ON analysis_sessions(created_at)`,
			}
		},
	}
}

// resultsTable builds a per-analysis results table keyed by (analysis_id, key).
func resultsTable(table, key, columns string) []string {
	return []string{
		fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					analysis_id VARCHAR(36) NOT NULL,
					%s,
					PRIMARY KEY (analysis_id, %s),
					CONSTRAINT fk_%s_session FOREIGN KEY (analysis_id) REFERENCES analysis_sessions(analysis_id) ON DELETE CASCADE
				)
			`, table, columns, key, table),
	}
}

// createSuspiciousCommentsTable creates the suspicious_comments table
func createSuspiciousCommentsTable() Migration {
	return Migration{
		Name:        "create_suspicious_comments_table",
		Description: "Creates the suspicious_comments table",
		TableName:   "suspicious_comments",
		Statements: func(d Dialect) []string {
			return append(resultsTable("suspicious_comments", "comment_id", `comment_id BIGINT NOT NULL,
					post_id BIGINT NOT NULL,
					username VARCHAR(255) NOT NULL,
					comment_text TEXT NOT NULL,
					probability DOUBLE PRECISION NOT NULL,
					detected_patterns TEXT NOT NULL`),
				`CREATE INDEX idx_suspicious_comments_probability ON suspicious_comments(analysis_id, probability)`,
			)
		},
	}
}

// createUserBehaviorsTable creates the user_behaviors table
func createUserBehaviorsTable() Migration {
	return Migration{
		Name:        "create_user_behaviors_table",
		Description: "Creates the user_behaviors table",
		TableName:   "user_behaviors",
		Statements: func(d Dialect) []string {
			return resultsTable("user_behaviors", "username", `username VARCHAR(255) NOT NULL,
					user_id BIGINT NOT NULL,
					suspicious_count INTEGER NOT NULL,
					total_count INTEGER NOT NULL,
					suspicion_score DOUBLE PRECISION NOT NULL,
					patterns TEXT NOT NULL,
					ranking INTEGER NOT NULL`)
		},
	}
}

// createPostAnalysesTable creates the post_analyses table
func createPostAnalysesTable() Migration {
	return Migration{
		Name:        "create_post_analyses_table",
		Description: "Creates the post_analyses table",
		TableName:   "post_analyses",
		Statements: func(d Dialect) []string {
			return resultsTable("post_analyses", "post_id", `post_id BIGINT NOT NULL,
					caption TEXT NOT NULL,
					username VARCHAR(255) NOT NULL,
					suspicious_count INTEGER NOT NULL,
					total_count INTEGER NOT NULL,
					suspicion_ratio DOUBLE PRECISION NOT NULL,
					ranking INTEGER NOT NULL`)
		},
	}
}

// createTrainedModelsTable creates the trained_models table
func createTrainedModelsTable() Migration {
	return Migration{
		Name:        "create_trained_models_table",
		Description: "Creates the trained_models table",
		TableName:   "trained_models",
		Statements: func(d Dialect) []string {
			return []string{fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS trained_models (
					analysis_id VARCHAR(36) PRIMARY KEY,
					catalog_version VARCHAR(32) NOT NULL,
					model_blob %s NOT NULL,
					created_at TIMESTAMP NOT NULL,
					CONSTRAINT fk_trained_models_session FOREIGN KEY (analysis_id) REFERENCES analysis_sessions(analysis_id) ON DELETE CASCADE
				)
			`, d.Blob())}
		},
	}
}
