// Package k8s provides a Kubernetes cluster status collector for telegrid.
// It queries the K8s API via client-go and reports node readiness, pod
// phases, and deployment replicas across one or more kubeconfig contexts as
// telemetry samples.
package k8s

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"gitlab.com/tinyland/lab/telegrid/pkg/telemetry"
)

// Name is the collector name and the Source of its samples.
const Name = "kubernetes"

const defaultInterval = 15 * time.Second

// Config holds the configuration for the Kubernetes collector.
type Config struct {
	// Interval is the collection polling interval. Defaults to 15s.
	Interval time.Duration

	// Kubeconfig is the path to a kubeconfig file. If empty, the default
	// loading rules apply (KUBECONFIG env, ~/.kube/config, in-cluster).
	Kubeconfig string

	// Contexts lists specific kubeconfig contexts to monitor. If empty,
	// only the current context is used.
	Contexts []string

	// Namespaces restricts collection to specific namespaces. If empty,
	// all namespaces are queried.
	Namespaces []string
}

// K8sClient abstracts Kubernetes API calls for testability.
type K8sClient interface {
	ListNodes(ctx context.Context) ([]corev1.Node, error)
	ListPods(ctx context.Context, namespace string) ([]corev1.Pod, error)
	ListDeployments(ctx context.Context, namespace string) ([]appsv1.Deployment, error)
}

// realClient wraps a kubernetes.Clientset to implement K8sClient.
type realClient struct {
	cs *kubernetes.Clientset
}

func (r *realClient) ListNodes(ctx context.Context) ([]corev1.Node, error) {
	list, err := r.cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (r *realClient) ListPods(ctx context.Context, namespace string) ([]corev1.Pod, error) {
	list, err := r.cs.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (r *realClient) ListDeployments(ctx context.Context, namespace string) ([]appsv1.Deployment, error) {
	list, err := r.cs.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// clientFactory creates K8sClient instances for a given kubeconfig context.
type clientFactory func(kubeconfig, context string) (K8sClient, error)

// defaultClientFactory builds a real K8sClient from a kubeconfig path and context.
func defaultClientFactory(kubeconfig, ctxName string) (K8sClient, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{}
	if ctxName != "" {
		overrides.CurrentContext = ctxName
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("build client config: %w", err)
	}
	cfg.Timeout = 10 * time.Second
	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}
	return &realClient{cs: cs}, nil
}

// Collector implements the pkg/collectors.Collector interface for Kubernetes.
type Collector struct {
	cfg     Config
	factory clientFactory

	mu      sync.RWMutex
	healthy bool
	clients map[string]K8sClient
}

// New creates a Collector with the given configuration.
func New(cfg Config) *Collector {
	return newWithFactory(cfg, defaultClientFactory)
}

func newWithFactory(cfg Config, factory clientFactory) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Collector{
		cfg:     cfg,
		factory: factory,
		healthy: true,
		clients: make(map[string]K8sClient),
	}
}

// Name returns the collector identifier.
func (c *Collector) Name() string { return Name }

// Interval returns the configured polling interval.
func (c *Collector) Interval() time.Duration { return c.cfg.Interval }

// Healthy returns true if at least one context answered on the last run.
func (c *Collector) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

func (c *Collector) setHealthy(h bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = h
}

// Collect gathers cluster status from every configured context. Each context
// reports a "connected" sample even when unreachable; unreachable contexts
// contribute to the returned error.
func (c *Collector) Collect(ctx context.Context) ([]telemetry.Datum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contexts := c.cfg.Contexts
	if len(contexts) == 0 {
		// Empty string selects the kubeconfig's current context.
		contexts = []string{""}
	}

	var data []telemetry.Datum
	var errs []error
	connected := 0
	for _, name := range contexts {
		ds, err := c.collectContext(ctx, name)
		data = append(data, ds...)
		if err != nil {
			label := name
			if label == "" {
				label = "current context"
			}
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
			continue
		}
		connected++
	}

	c.setHealthy(connected > 0)
	if len(errs) == 0 {
		return data, nil
	}
	return data, fmt.Errorf("k8s: %w", errors.Join(errs...))
}

func (c *Collector) client(name string) (K8sClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[name]; ok {
		return cl, nil
	}
	cl, err := c.factory(c.cfg.Kubeconfig, name)
	if err != nil {
		return nil, err
	}
	c.clients[name] = cl
	return cl, nil
}

func (c *Collector) forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, name)
}

// collectContext gathers samples for a single kubeconfig context.
func (c *Collector) collectContext(ctx context.Context, name string) ([]telemetry.Datum, error) {
	s := sampler{prefix: name}
	if name != "" {
		s.prefix += "/"
	}

	client, err := c.client(name)
	if err != nil {
		s.add("connected", 0, "")
		return s.out, err
	}

	nodes, err := client.ListNodes(ctx)
	if err != nil {
		// Rebuild the client on the next run; credentials may have rotated.
		c.forget(name)
		s.add("connected", 0, "")
		return s.out, fmt.Errorf("list nodes: %w", err)
	}
	s.add("connected", 1, "")

	pods := c.listPods(ctx, client)
	deploys := c.listDeployments(ctx, client)

	ready := 0
	for i := range nodes {
		if isNodeReady(&nodes[i]) {
			ready++
		}
	}
	s.add("nodes.total", float64(len(nodes)), "")
	s.add("nodes.ready", float64(ready), "")

	podsByNode := countPodsByNode(pods)
	cpuByNode := cpuRequestsByNode(pods)
	for i := range nodes {
		n := nodes[i].Name
		s.add("node/"+n+".pods", float64(podsByNode[n]), "")
		s.add("node/"+n+".cpu.requests", float64(cpuByNode[n]), "m")
	}

	byNs := make(map[string][]corev1.Pod)
	for i := range pods {
		byNs[pods[i].Namespace] = append(byNs[pods[i].Namespace], pods[i])
	}
	for _, ns := range sortedKeys(byNs) {
		pc := countPodPhases(byNs[ns])
		s.add("ns/"+ns+".pods.running", float64(pc.Running), "")
		s.add("ns/"+ns+".pods.pending", float64(pc.Pending), "")
		s.add("ns/"+ns+".pods.failed", float64(pc.Failed), "")
		if pc.Succeeded > 0 {
			s.add("ns/"+ns+".pods.succeeded", float64(pc.Succeeded), "")
		}
		if pc.Unknown > 0 {
			s.add("ns/"+ns+".pods.unknown", float64(pc.Unknown), "")
		}
	}

	for i := range deploys {
		d := &deploys[i]
		var want int32 = 1
		if d.Spec.Replicas != nil {
			want = *d.Spec.Replicas
		}
		s.add(fmt.Sprintf("deploy/%s/%s.ready", d.Namespace, d.Name),
			float64(d.Status.ReadyReplicas), fmt.Sprintf("of %d", want))
	}
	return s.out, nil
}

// listPods fetches pods from the configured namespaces, or from all
// namespaces at once when none are configured. Failed namespaces are skipped.
func (c *Collector) listPods(ctx context.Context, client K8sClient) []corev1.Pod {
	if len(c.cfg.Namespaces) == 0 {
		pods, _ := client.ListPods(ctx, "")
		return pods
	}
	var all []corev1.Pod
	for _, ns := range c.cfg.Namespaces {
		pods, err := client.ListPods(ctx, ns)
		if err != nil {
			continue
		}
		all = append(all, pods...)
	}
	return all
}

func (c *Collector) listDeployments(ctx context.Context, client K8sClient) []appsv1.Deployment {
	if len(c.cfg.Namespaces) == 0 {
		deps, _ := client.ListDeployments(ctx, "")
		return deps
	}
	var all []appsv1.Deployment
	for _, ns := range c.cfg.Namespaces {
		deps, err := client.ListDeployments(ctx, ns)
		if err != nil {
			continue
		}
		all = append(all, deps...)
	}
	return all
}

// sampler accumulates samples under a context prefix.
type sampler struct {
	prefix string
	out    []telemetry.Datum
}

func (s *sampler) add(name string, v float64, unit string) {
	s.out = append(s.out, telemetry.Datum{Name: s.prefix + name, Value: v, Unit: unit})
}

// ---------- helpers ----------

// isNodeReady checks whether a node has a Ready condition set to True.
func isNodeReady(node *corev1.Node) bool {
	if node == nil {
		return false
	}
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// countPodsByNode maps node name to the number of pods scheduled on it.
func countPodsByNode(pods []corev1.Pod) map[string]int {
	counts := make(map[string]int)
	for i := range pods {
		if pods[i].Spec.NodeName != "" {
			counts[pods[i].Spec.NodeName]++
		}
	}
	return counts
}

// cpuRequestsByNode sums container CPU requests in millicores per node.
func cpuRequestsByNode(pods []corev1.Pod) map[string]int64 {
	out := make(map[string]int64)
	for i := range pods {
		node := pods[i].Spec.NodeName
		if node == "" {
			continue
		}
		for j := range pods[i].Spec.Containers {
			if v, ok := pods[i].Spec.Containers[j].Resources.Requests[corev1.ResourceCPU]; ok {
				out[node] += v.MilliValue()
			}
		}
	}
	return out
}

// PodCounts tracks pod phase counts within a namespace.
type PodCounts struct {
	Total     int
	Running   int
	Pending   int
	Succeeded int
	Failed    int
	Unknown   int
}

// countPodPhases aggregates pod counts by phase.
func countPodPhases(pods []corev1.Pod) PodCounts {
	pc := PodCounts{Total: len(pods)}
	for i := range pods {
		switch pods[i].Status.Phase {
		case corev1.PodRunning:
			pc.Running++
		case corev1.PodPending:
			pc.Pending++
		case corev1.PodSucceeded:
			pc.Succeeded++
		case corev1.PodFailed:
			pc.Failed++
		default:
			pc.Unknown++
		}
	}
	return pc
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
