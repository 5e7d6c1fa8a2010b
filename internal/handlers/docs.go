package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Coverage Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	paginationParams := []map[string]interface{}{
		{
			"name":        "page",
			"in":          "query",
			"description": "Page number (default: 1)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 1},
		},
		{
			"name":        "limit",
			"in":          "query",
			"description": "Records per page (default: 100)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 100},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Coverage Platform API",
			"description": "Service-coverage analytics over civil registry activity: pincode metrics, district baselines, and ranked policy priorities",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Coverage Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/pincodes/{pincode}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get pincode metrics",
					"description": "Retrieve the full metric set for one pincode from the latest analysis run",
					"parameters": []map[string]interface{}{
						{
							"name":        "pincode",
							"in":          "path",
							"description": "Six-digit pincode",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"pincode":             map[string]string{"type": "string"},
											"district":            map[string]string{"type": "string"},
											"state":               map[string]string{"type": "string"},
											"population":          map[string]string{"type": "number"},
											"urban_flag":          map[string]string{"type": "string"},
											"activity_per_100k":   map[string]string{"type": "number"},
											"imputation_source":   map[string]string{"type": "string"},
											"is_service_desert":   map[string]string{"type": "boolean"},
											"severity_score":      map[string]string{"type": "number"},
											"mismatch_type":       map[string]string{"type": "string"},
											"consistency_score":   map[string]string{"type": "number"},
											"consistency_tier":    map[string]string{"type": "string"},
											"months_observed":     map[string]string{"type": "integer"},
											"trend_class":         map[string]string{"type": "string"},
											"recent_pct_change":   map[string]interface{}{"type": "number", "nullable": true},
											"temporal_volatility": map[string]interface{}{"type": "number", "nullable": true},
										},
									},
								},
							},
						},
						"404": map[string]interface{}{
							"description": "Pincode not found",
						},
					},
				},
			},
			"/api/pincodes/search": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Search pincodes by district",
					"description": "Exact district match first; falls back to substring match when nothing matches exactly",
					"parameters": []map[string]interface{}{
						{
							"name":        "district",
							"in":          "query",
							"description": "District name",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum results (default: 100)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/priorities": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get policy priorities",
					"description": "Retrieve the composite priority ranking with filtering and pagination",
					"parameters": append([]map[string]interface{}{
						{
							"name":        "state",
							"in":          "query",
							"description": "Filter by state",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "district",
							"in":          "query",
							"description": "Filter by district",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "intervention",
							"in":          "query",
							"description": "Filter by intervention type (permanent_center, capacity_expansion, mobile_enrollment)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "deserts_only",
							"in":          "query",
							"description": "Restrict to flagged service deserts",
							"required":    false,
							"schema":      map[string]string{"type": "boolean"},
						},
					}, paginationParams...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"priority_rank":            map[string]string{"type": "integer"},
														"pincode":                  map[string]string{"type": "string"},
														"district":                 map[string]string{"type": "string"},
														"state":                    map[string]string{"type": "string"},
														"population":               map[string]string{"type": "number"},
														"is_service_desert":        map[string]string{"type": "boolean"},
														"stress_signal":            map[string]string{"type": "boolean"},
														"mismatch_type":            map[string]string{"type": "string"},
														"composite_priority":       map[string]string{"type": "number"},
														"intervention_type":        map[string]string{"type": "string"},
														"recommended_mobile_units": map[string]string{"type": "integer"},
														"estimated_field_staff":    map[string]string{"type": "integer"},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/districts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get district baselines",
					"description": "Retrieve per-district comparison baselines from the latest analysis run",
					"parameters":  paginationParams,
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/states": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get state summaries",
					"description": "Per-state rollup of pincode counts, desert counts, affected population, and stress ratios",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/overview": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get analysis overview",
					"description": "Aggregate counts for the current snapshot: deserts, stress signals, urban/rural split, priority buckets, and intervention mix",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/api/validation": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get validation reports",
					"description": "PASS/FAIL checks for every analysis domain of the latest run",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running and whether a snapshot is loaded",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status":       map[string]string{"type": "string"},
											"has_snapshot": map[string]string{"type": "boolean"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
