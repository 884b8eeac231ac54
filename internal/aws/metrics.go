package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsRecorder publishes custom metrics to CloudWatch. Calls are
// best-effort; callers log and move on when a put fails.
type MetricsRecorder struct {
	CW        CloudWatchAPI
	Namespace string
}

// NewMetricsRecorder returns a recorder bound to a namespace.
func NewMetricsRecorder(cw CloudWatchAPI, namespace string) *MetricsRecorder {
	return &MetricsRecorder{
		CW:        cw,
		Namespace: namespace,
	}
}

// Count publishes a single count datum with optional dimensions.
func (r *MetricsRecorder) Count(ctx context.Context, name string, value float64, dims map[string]string) error {
	var dd []cwtypes.Dimension
	for k, v := range dims {
		dd = append(dd, cwtypes.Dimension{
			Name:  awsString(k),
			Value: awsString(v),
		})
	}

	_, err := r.CW.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &r.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString(name),
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dd,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
