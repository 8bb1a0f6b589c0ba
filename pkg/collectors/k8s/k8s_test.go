package k8s

import (
	"context"
	"errors"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// ---------- Mock K8sClient ----------

// mockClient implements K8sClient with configurable return values.
type mockClient struct {
	nodes       []corev1.Node
	nodesErr    error
	pods        map[string][]corev1.Pod // namespace -> pods (empty key = all)
	deployments map[string][]appsv1.Deployment
}

func (m *mockClient) ListNodes(_ context.Context) ([]corev1.Node, error) {
	return m.nodes, m.nodesErr
}

func (m *mockClient) ListPods(_ context.Context, namespace string) ([]corev1.Pod, error) {
	return m.pods[namespace], nil
}

func (m *mockClient) ListDeployments(_ context.Context, namespace string) ([]appsv1.Deployment, error) {
	return m.deployments[namespace], nil
}

// ---------- Helper builders ----------

func makeNode(name string, ready bool) corev1.Node {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	return corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{{Type: corev1.NodeReady, Status: status}},
		},
	}
}

func makePod(name, namespace, nodeName string, phase corev1.PodPhase, cpuReq string) corev1.Pod {
	p := corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       corev1.PodSpec{NodeName: nodeName},
		Status:     corev1.PodStatus{Phase: phase},
	}
	if cpuReq != "" {
		p.Spec.Containers = []corev1.Container{{
			Name: "main",
			Resources: corev1.ResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceCPU: resource.MustParse(cpuReq)},
			},
		}}
	}
	return p
}

func makeDeployment(name, namespace string, replicas *int32, ready int32) appsv1.Deployment {
	return appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Spec:       appsv1.DeploymentSpec{Replicas: replicas},
		Status:     appsv1.DeploymentStatus{ReadyReplicas: ready},
	}
}

func int32Ptr(v int32) *int32 { return &v }

// countingFactory maps context names to clients and counts factory calls.
type countingFactory struct {
	clients map[string]K8sClient
	calls   int
}

func (f *countingFactory) build(_, ctxName string) (K8sClient, error) {
	f.calls++
	if c, ok := f.clients[ctxName]; ok {
		return c, nil
	}
	return nil, errors.New("context not found")
}

func byName(ds []telemetry.Datum) map[string]telemetry.Datum {
	out := make(map[string]telemetry.Datum, len(ds))
	for _, d := range ds {
		out[d.Name] = d
	}
	return out
}

func wantValue(t *testing.T, got map[string]telemetry.Datum, name string, want float64) {
	t.Helper()
	d, ok := got[name]
	if !ok {
		t.Errorf("missing sample %q", name)
		return
	}
	if d.Value != want {
		t.Errorf("%s = %v, want %v", name, d.Value, want)
	}
}

func healthyCluster() *mockClient {
	return &mockClient{
		nodes: []corev1.Node{makeNode("node-a", true), makeNode("node-b", false)},
		pods: map[string][]corev1.Pod{
			"": {
				makePod("web-1", "app", "node-a", corev1.PodRunning, "250m"),
				makePod("web-2", "app", "node-a", corev1.PodRunning, "500m"),
				makePod("job-1", "app", "node-b", corev1.PodSucceeded, ""),
				makePod("dns", "kube-system", "node-b", corev1.PodPending, "100m"),
			},
		},
		deployments: map[string][]appsv1.Deployment{
			"": {makeDeployment("web", "app", int32Ptr(3), 2)},
		},
	}
}

// ---------- Tests ----------

func TestNameAndInterval(t *testing.T) {
	c := New(Config{})
	if c.Name() != "kubernetes" {
		t.Errorf("Name() = %q", c.Name())
	}
	if c.Interval() != 15*time.Second {
		t.Errorf("default Interval() = %v, want 15s", c.Interval())
	}
	if New(Config{Interval: time.Minute}).Interval() != time.Minute {
		t.Error("custom interval not applied")
	}
}

func TestCollectCluster(t *testing.T) {
	f := &countingFactory{clients: map[string]K8sClient{"": healthyCluster()}}
	c := newWithFactory(Config{}, f.build)

	data, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	got := byName(data)

	wantValue(t, got, "connected", 1)
	wantValue(t, got, "nodes.total", 2)
	wantValue(t, got, "nodes.ready", 1)
	wantValue(t, got, "node/node-a.pods", 2)
	wantValue(t, got, "node/node-a.cpu.requests", 750)
	wantValue(t, got, "node/node-b.cpu.requests", 100)
	wantValue(t, got, "ns/app.pods.running", 2)
	wantValue(t, got, "ns/app.pods.succeeded", 1)
	wantValue(t, got, "ns/kube-system.pods.pending", 1)
	wantValue(t, got, "deploy/app/web.ready", 2)

	if u := got["deploy/app/web.ready"].Unit; u != "of 3" {
		t.Errorf("deployment unit = %q, want %q", u, "of 3")
	}
	if _, ok := got["ns/kube-system.pods.succeeded"]; ok {
		t.Error("zero succeeded count should be omitted")
	}
	if !c.Healthy() {
		t.Error("collector should be healthy")
	}
}

func TestCollectNamespaceFiltering(t *testing.T) {
	client := &mockClient{
		nodes: []corev1.Node{makeNode("n", true)},
		pods: map[string][]corev1.Pod{
			"app":         {makePod("a", "app", "n", corev1.PodRunning, "")},
			"kube-system": {makePod("b", "kube-system", "n", corev1.PodRunning, "")},
		},
	}
	f := &countingFactory{clients: map[string]K8sClient{"": client}}
	c := newWithFactory(Config{Namespaces: []string{"app"}}, f.build)

	data, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	got := byName(data)
	wantValue(t, got, "ns/app.pods.running", 1)
	if _, ok := got["ns/kube-system.pods.running"]; ok {
		t.Error("filtered namespace leaked into samples")
	}
}

func TestCollectClientError(t *testing.T) {
	f := &countingFactory{}
	c := newWithFactory(Config{}, f.build)

	data, err := c.Collect(context.Background())
	if err == nil {
		t.Fatal("expected error for unreachable context")
	}
	wantValue(t, byName(data), "connected", 0)
	if c.Healthy() {
		t.Error("collector should be unhealthy")
	}
}

func TestClientCachedUntilFailure(t *testing.T) {
	client := healthyCluster()
	f := &countingFactory{clients: map[string]K8sClient{"": client}}
	c := newWithFactory(Config{}, f.build)

	c.Collect(context.Background())
	c.Collect(context.Background())
	if f.calls != 1 {
		t.Fatalf("factory called %d times, want 1", f.calls)
	}

	client.nodesErr = errors.New("unauthorized")
	if _, err := c.Collect(context.Background()); err == nil {
		t.Fatal("expected list nodes error")
	}
	client.nodesErr = nil
	if _, err := c.Collect(context.Background()); err != nil {
		t.Fatalf("Collect after recovery: %v", err)
	}
	if f.calls != 2 {
		t.Errorf("factory called %d times, want client rebuilt once", f.calls)
	}
}

func TestCollectMultipleContextsOneDisconnected(t *testing.T) {
	f := &countingFactory{clients: map[string]K8sClient{"prod": healthyCluster()}}
	c := newWithFactory(Config{Contexts: []string{"prod", "dev"}}, f.build)

	data, err := c.Collect(context.Background())
	if err == nil {
		t.Error("expected error naming the disconnected context")
	}
	got := byName(data)
	wantValue(t, got, "prod/connected", 1)
	wantValue(t, got, "prod/nodes.ready", 1)
	wantValue(t, got, "dev/connected", 0)
	if !c.Healthy() {
		t.Error("one reachable context keeps the collector healthy")
	}
}

func TestCollectDeploymentNilReplicas(t *testing.T) {
	client := &mockClient{
		nodes: []corev1.Node{makeNode("n", true)},
		deployments: map[string][]appsv1.Deployment{
			"": {makeDeployment("solo", "default", nil, 1)},
		},
	}
	f := &countingFactory{clients: map[string]K8sClient{"": client}}
	c := newWithFactory(Config{}, f.build)

	data, _ := c.Collect(context.Background())
	if u := byName(data)["deploy/default/solo.ready"].Unit; u != "of 1" {
		t.Errorf("unit = %q, want %q", u, "of 1")
	}
}

func TestCollectContextCancelled(t *testing.T) {
	f := &countingFactory{clients: map[string]K8sClient{"": healthyCluster()}}
	c := newWithFactory(Config{}, f.build)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if f.calls != 0 {
		t.Error("cancelled collect should not build clients")
	}
}

func TestIsNodeReady(t *testing.T) {
	n := makeNode("x", true)
	if !isNodeReady(&n) {
		t.Error("ready node reported not ready")
	}
	if isNodeReady(nil) {
		t.Error("nil node reported ready")
	}
	if isNodeReady(&corev1.Node{}) {
		t.Error("node without conditions reported ready")
	}
}
