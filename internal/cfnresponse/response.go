// Package cfnresponse builds and delivers the result document of a
// CloudFormation custom resource invocation.
//
// CloudFormation waits on a presigned S3 URL (ResponseURL) for exactly one
// PUT of this document. The URL is the only credential; nothing is signed.
//
// Reference: https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/crpg-ref-responses.html
package cfnresponse

import (
	"github.com/aws/aws-lambda-go/cfn"
)

// Status is the outcome reported to CloudFormation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Response is the JSON document PUT to the ResponseURL. StackId, RequestId
// and LogicalResourceId are echoed from the request unchanged.
type Response struct {
	Status             Status                 `json:"Status"`
	Reason             string                 `json:"Reason"`
	PhysicalResourceID string                 `json:"PhysicalResourceId"`
	StackID            string                 `json:"StackId"`
	RequestID          string                 `json:"RequestId"`
	LogicalResourceID  string                 `json:"LogicalResourceId"`
	Data               map[string]interface{} `json:"Data"`
}

// DefaultReason is the reason sent with a SUCCESS that carries no remark.
func DefaultReason(logStream string) string {
	return "See the details in CloudWatch Log Stream: " + logStream
}

// Success builds a SUCCESS response for event. logStream feeds the default
// reason; data may be nil.
func Success(event cfn.Event, physicalID, logStream string, data map[string]interface{}) Response {
	return newResponse(event, StatusSuccess, DefaultReason(logStream), physicalID, data)
}

// Failed builds a FAILED response whose reason is err's message.
func Failed(event cfn.Event, physicalID string, err error) Response {
	reason := "unknown error"
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}
	return newResponse(event, StatusFailed, reason, physicalID, nil)
}

func newResponse(event cfn.Event, status Status, reason, physicalID string, data map[string]interface{}) Response {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Response{
		Status:             status,
		Reason:             reason,
		PhysicalResourceID: physicalID,
		StackID:            event.StackID,
		RequestID:          event.RequestID,
		LogicalResourceID:  event.LogicalResourceID,
		Data:               data,
	}
}
