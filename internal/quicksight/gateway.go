// Package quicksight adapts the AWS QuickSight API to the domain
// AccessGateway port.
package quicksight

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/quicksight"
	"github.com/aws/aws-sdk-go-v2/service/quicksight/types"
	"github.com/aws/smithy-go"
	"golang.org/x/time/rate"

	"qs-governance/internal/domain"
)

// API is the subset of the QuickSight client the gateway uses. It exists so
// tests can stub the SDK; *quicksight.Client satisfies it.
type API interface {
	DescribeNamespace(ctx context.Context, in *quicksight.DescribeNamespaceInput, opts ...func(*quicksight.Options)) (*quicksight.DescribeNamespaceOutput, error)
	CreateNamespace(ctx context.Context, in *quicksight.CreateNamespaceInput, opts ...func(*quicksight.Options)) (*quicksight.CreateNamespaceOutput, error)
	DescribeUser(ctx context.Context, in *quicksight.DescribeUserInput, opts ...func(*quicksight.Options)) (*quicksight.DescribeUserOutput, error)
	RegisterUser(ctx context.Context, in *quicksight.RegisterUserInput, opts ...func(*quicksight.Options)) (*quicksight.RegisterUserOutput, error)
	UpdateUser(ctx context.Context, in *quicksight.UpdateUserInput, opts ...func(*quicksight.Options)) (*quicksight.UpdateUserOutput, error)
	DeleteUser(ctx context.Context, in *quicksight.DeleteUserInput, opts ...func(*quicksight.Options)) (*quicksight.DeleteUserOutput, error)
	DescribeGroup(ctx context.Context, in *quicksight.DescribeGroupInput, opts ...func(*quicksight.Options)) (*quicksight.DescribeGroupOutput, error)
	CreateGroup(ctx context.Context, in *quicksight.CreateGroupInput, opts ...func(*quicksight.Options)) (*quicksight.CreateGroupOutput, error)
	ListUserGroups(ctx context.Context, in *quicksight.ListUserGroupsInput, opts ...func(*quicksight.Options)) (*quicksight.ListUserGroupsOutput, error)
	CreateGroupMembership(ctx context.Context, in *quicksight.CreateGroupMembershipInput, opts ...func(*quicksight.Options)) (*quicksight.CreateGroupMembershipOutput, error)
	DeleteGroupMembership(ctx context.Context, in *quicksight.DeleteGroupMembershipInput, opts ...func(*quicksight.Options)) (*quicksight.DeleteGroupMembershipOutput, error)
	ListDataSets(ctx context.Context, in *quicksight.ListDataSetsInput, opts ...func(*quicksight.Options)) (*quicksight.ListDataSetsOutput, error)
	UpdateDataSetPermissions(ctx context.Context, in *quicksight.UpdateDataSetPermissionsInput, opts ...func(*quicksight.Options)) (*quicksight.UpdateDataSetPermissionsOutput, error)
}

// Gateway implements domain.AccessGateway against QuickSight. Calls are
// throttled through a shared client-side rate limiter: the QuickSight API
// has low per-account limits and the engine deliberately has no retry
// policy, so staying under the limit matters more than raw speed.
type Gateway struct {
	client  API
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ domain.AccessGateway = (*Gateway)(nil)

// New creates a Gateway over the given QuickSight client. rps bounds the
// sustained request rate; zero disables throttling.
func New(client API, rps float64, logger *slog.Logger) *Gateway {
	g := &Gateway{client: client, logger: logger}
	if rps > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return g
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}

// NamespaceExists probes for a namespace.
func (g *Gateway) NamespaceExists(ctx context.Context, accountID, namespace string) (bool, error) {
	if err := g.wait(ctx); err != nil {
		return false, err
	}
	_, err := g.client.DescribeNamespace(ctx, &quicksight.DescribeNamespaceInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
	})
	return g.exists(err, "DescribeNamespace")
}

// CreateNamespace provisions a namespace backed by the native identity
// store. Provisioning completes asynchronously on the remote side.
func (g *Gateway) CreateNamespace(ctx context.Context, accountID, namespace string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.CreateNamespace(ctx, &quicksight.CreateNamespaceInput{
		AwsAccountId:  aws.String(accountID),
		Namespace:     aws.String(namespace),
		IdentityStore: types.IdentityStoreQuicksight,
	})
	if err != nil {
		return g.remote("CreateNamespace", err)
	}
	g.logger.Debug("namespace creation requested", "namespace", namespace)
	return nil
}

// UserExists probes for a user in a namespace.
func (g *Gateway) UserExists(ctx context.Context, accountID, namespace, handle string) (bool, error) {
	if err := g.wait(ctx); err != nil {
		return false, err
	}
	_, err := g.client.DescribeUser(ctx, &quicksight.DescribeUserInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		UserName:     aws.String(handle),
	})
	return g.exists(err, "DescribeUser")
}

// RegisterUser registers a federated IAM user in a namespace. The remote
// system derives the user name from the role ARN and session name.
func (g *Gateway) RegisterUser(ctx context.Context, accountID, namespace string, reg domain.UserRegistration) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.RegisterUser(ctx, &quicksight.RegisterUserInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		IdentityType: types.IdentityTypeIam,
		Email:        aws.String(reg.Email),
		UserRole:     types.UserRole(reg.Role),
		IamArn:       aws.String(reg.IAMRoleARN),
		SessionName:  aws.String(reg.SessionName),
	})
	if err != nil {
		return g.remote("RegisterUser", err)
	}
	return nil
}

// UpdateUserRole sets the user's role. A missing user maps to NotFoundError
// and a rejected role value to InvalidRoleError; the reconciler reads both
// as the downgrade signal.
func (g *Gateway) UpdateUserRole(ctx context.Context, accountID, namespace, handle, role, email string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.UpdateUser(ctx, &quicksight.UpdateUserInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		UserName:     aws.String(handle),
		Role:         types.UserRole(role),
		Email:        aws.String(email),
	})
	if err != nil {
		var nf *types.ResourceNotFoundException
		if errors.As(err, &nf) {
			return domain.ErrNotFound("user %q not found in namespace %q", handle, namespace)
		}
		var inv *types.InvalidParameterValueException
		if errors.As(err, &inv) {
			return domain.ErrInvalidRole("role %q rejected for user %q: %s", role, handle, aws.ToString(inv.Message))
		}
		return g.remote("UpdateUser", err)
	}
	return nil
}

// DeleteUser removes the user from its namespace.
func (g *Gateway) DeleteUser(ctx context.Context, accountID, namespace, handle string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.DeleteUser(ctx, &quicksight.DeleteUserInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		UserName:     aws.String(handle),
	})
	if err != nil {
		return g.remote("DeleteUser", err)
	}
	g.logger.Debug("user deleted", "namespace", namespace, "user", handle)
	return nil
}

// GroupExists probes for a group in a namespace.
func (g *Gateway) GroupExists(ctx context.Context, accountID, namespace, group string) (bool, error) {
	if err := g.wait(ctx); err != nil {
		return false, err
	}
	_, err := g.client.DescribeGroup(ctx, &quicksight.DescribeGroupInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		GroupName:    aws.String(group),
	})
	return g.exists(err, "DescribeGroup")
}

// CreateGroup creates a group in a namespace.
func (g *Gateway) CreateGroup(ctx context.Context, accountID, namespace, group string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.CreateGroup(ctx, &quicksight.CreateGroupInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		GroupName:    aws.String(group),
	})
	if err != nil {
		return g.remote("CreateGroup", err)
	}
	return nil
}

// ListUserGroups returns the names of all groups the user belongs to,
// following pagination to exhaustion.
func (g *Gateway) ListUserGroups(ctx context.Context, accountID, namespace, handle string) ([]string, error) {
	var groups []string
	var next *string
	for {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		out, err := g.client.ListUserGroups(ctx, &quicksight.ListUserGroupsInput{
			AwsAccountId: aws.String(accountID),
			Namespace:    aws.String(namespace),
			UserName:     aws.String(handle),
			NextToken:    next,
		})
		if err != nil {
			return nil, g.remote("ListUserGroups", err)
		}
		for _, grp := range out.GroupList {
			groups = append(groups, aws.ToString(grp.GroupName))
		}
		if out.NextToken == nil {
			return groups, nil
		}
		next = out.NextToken
	}
}

// AddMembership adds the user to a group.
func (g *Gateway) AddMembership(ctx context.Context, accountID, namespace, handle, group string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.CreateGroupMembership(ctx, &quicksight.CreateGroupMembershipInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		GroupName:    aws.String(group),
		MemberName:   aws.String(handle),
	})
	if err != nil {
		return g.remote("CreateGroupMembership", err)
	}
	return nil
}

// RemoveMembership removes the user from a group.
func (g *Gateway) RemoveMembership(ctx context.Context, accountID, namespace, handle, group string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.DeleteGroupMembership(ctx, &quicksight.DeleteGroupMembershipInput{
		AwsAccountId: aws.String(accountID),
		Namespace:    aws.String(namespace),
		GroupName:    aws.String(group),
		MemberName:   aws.String(handle),
	})
	if err != nil {
		return g.remote("DeleteGroupMembership", err)
	}
	return nil
}

// ListDatasets returns id/name summaries for every dataset in the account,
// following pagination to exhaustion.
func (g *Gateway) ListDatasets(ctx context.Context, accountID string) ([]domain.DatasetSummary, error) {
	var summaries []domain.DatasetSummary
	var next *string
	for {
		if err := g.wait(ctx); err != nil {
			return nil, err
		}
		out, err := g.client.ListDataSets(ctx, &quicksight.ListDataSetsInput{
			AwsAccountId: aws.String(accountID),
			NextToken:    next,
		})
		if err != nil {
			return nil, g.remote("ListDataSets", err)
		}
		for _, s := range out.DataSetSummaries {
			summaries = append(summaries, domain.DatasetSummary{
				ID:   aws.ToString(s.DataSetId),
				Name: aws.ToString(s.Name),
			})
		}
		if out.NextToken == nil {
			return summaries, nil
		}
		next = out.NextToken
	}
}

// GrantDatasetPermissions grants the action set to the principal on a
// dataset. The call is additive: re-granting identical actions is a no-op
// on the remote side.
func (g *Gateway) GrantDatasetPermissions(ctx context.Context, accountID, datasetID, principalARN string, actions []string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	_, err := g.client.UpdateDataSetPermissions(ctx, &quicksight.UpdateDataSetPermissionsInput{
		AwsAccountId: aws.String(accountID),
		DataSetId:    aws.String(datasetID),
		GrantPermissions: []types.ResourcePermission{
			{Principal: aws.String(principalARN), Actions: actions},
		},
	})
	if err != nil {
		return g.remote("UpdateDataSetPermissions", err)
	}
	return nil
}

// exists translates a describe-call result into an existence probe:
// a ResourceNotFoundException is a regular miss, anything else a failure.
func (g *Gateway) exists(err error, op string) (bool, error) {
	if err == nil {
		return true, nil
	}
	var nf *types.ResourceNotFoundException
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, g.remote(op, err)
}

// remote wraps a failed call as a RemoteError. Throttling is logged
// separately: the engine has no retry policy, so a throttled run fails and
// the operator needs to see it as a rate problem, not a data problem.
func (g *Gateway) remote(op string, err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "ThrottlingException" {
		g.logger.Warn("remote API throttled", "op", op)
	}
	return domain.ErrRemote(op, err)
}

// NewFromConfig builds a Gateway from an AWS SDK configuration.
func NewFromConfig(cfg aws.Config, rps float64, logger *slog.Logger) *Gateway {
	return New(quicksight.NewFromConfig(cfg), rps, logger)
}
