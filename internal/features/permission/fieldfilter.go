package permission

import (
	"context"

	"go-bms/internal/features/role"
)

// FilterObjectFields returns a copy of obj holding only the allowed fields.
// An empty allowed set means no restriction and returns obj as-is. The "id"
// field survives filtering whenever the source has one; callers correlate
// results by it.
func FilterObjectFields(obj map[string]interface{}, allowed map[string]struct{}) map[string]interface{} {
	if len(allowed) == 0 {
		return obj
	}
	out := make(map[string]interface{}, len(allowed)+1)
	for k, v := range obj {
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}
	if id, ok := obj["id"]; ok {
		out["id"] = id
	}
	return out
}

// FilterValue applies FilterObjectFields to an object or element-wise to an
// array of objects. Other values pass through untouched.
func FilterValue(v interface{}, allowed map[string]struct{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return FilterObjectFields(typed, allowed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, elem := range typed {
			out[i] = FilterValue(elem, allowed)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(typed))
		for i, elem := range typed {
			out[i] = FilterObjectFields(elem, allowed)
		}
		return out
	default:
		return v
	}
}

// FilterDataByPermissions redacts data according to the person's advanced
// rows for resource+action. With no matching rows it degenerates to a plain
// permission check: full data on grant, nil on deny. A matching global- or
// tenant-scoped row without a field restriction releases the full data;
// otherwise the union of allowed fields across matches is applied.
func (e *EvaluatorImpl) FilterDataByPermissions(ctx context.Context, personID, resource, action string, data interface{}, tenantID string) (interface{}, error) {
	rows, err := e.advancedFor(ctx, personID, tenantID, resource, action)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		if e.HasPermission(ctx, personID, FromActionResource(action, resource), Context{TenantID: tenantID}) {
			return data, nil
		}
		return nil, nil
	}

	allowed := make(map[string]struct{})
	for _, ap := range rows {
		if (ap.Scope == role.AdvGlobal || ap.Scope == role.AdvTenant) && len(ap.AllowedFields) == 0 {
			return data, nil
		}
		for _, f := range ap.AllowedFields {
			allowed[f] = struct{}{}
		}
	}

	return FilterValue(data, allowed), nil
}
