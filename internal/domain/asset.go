package domain

import "fmt"

// CategoryDataset is the only asset category the engine reconciles. Records
// with any other category are accepted and skipped.
const CategoryDataset = "dataset"

// PermissionRead is the only permission level defined for dataset grants.
const PermissionRead = "READ"

// readActions is the fixed action set granted for READ permission.
var readActions = []string{
	"quicksight:DescribeDataSet",
	"quicksight:DescribeDataSetPermissions",
	"quicksight:PassDataSet",
	"quicksight:DescribeIngestion",
	"quicksight:ListIngestions",
}

// AssetRecord is one asset entry from the asset governance manifest. It
// declares a permission grant on a named dataset for a group in a namespace.
type AssetRecord struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Namespace  string `json:"namespace"`
	Group      string `json:"group"`
	Permission string `json:"permission"`

	// AccountID is stamped by the batch driver, same as on UserRecord.
	AccountID string `json:"-"`
}

// String identifies the record in logs and run reports.
func (a AssetRecord) String() string {
	return fmt.Sprintf("%s:%s", a.Category, a.Name)
}

// ActionsForPermission maps a manifest permission level to the remote action
// set it grants. Unrecognized levels are a validation failure: silently
// granting an empty action set would report success for a grant that never
// happened.
func ActionsForPermission(permission string) ([]string, error) {
	switch permission {
	case PermissionRead:
		return readActions, nil
	default:
		return nil, ErrValidation("unrecognized permission %q", permission)
	}
}

// GroupPrincipalARN builds the principal ARN for a group in a namespace,
// used as the grantee of dataset permissions.
func GroupPrincipalARN(region, accountID, namespace, group string) string {
	return fmt.Sprintf("arn:aws:quicksight:%s:%s:group/%s/%s", region, accountID, namespace, group)
}
