// Package kubernetes discovers pod containers running on the local node via
// the Kubernetes API, resolving each one's kubelet-managed cgroup slice.
package kubernetes

import (
	"context"
	"fmt"
	"os"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	fields "k8s.io/apimachinery/pkg/fields"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/target"
)

// Provider implements target.Provider over the Kubernetes API, scoped to
// the pods scheduled on a single node (the one this process runs on).
type Provider struct {
	clientset *kubernetes.Clientset
	nodeName  string
}

// New builds a client from the in-cluster service account when running as
// a pod, falling back to the ambient kubeconfig (KUBECONFIG / ~/.kube/config)
// otherwise, mirroring how a node-resident daemon discovers itself.
func New(nodeName string) (*Provider, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
		config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("kubernetes: loading client config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("kubernetes: building clientset: %w", err)
	}

	if nodeName == "" {
		nodeName, _ = os.Hostname()
	}
	return &Provider{clientset: clientset, nodeName: nodeName}, nil
}

func (p *Provider) Name() string { return "kubernetes" }

// Fetch lists running pods scheduled on this node and emits one target per
// running container.
func (p *Provider) Fetch(ctx context.Context) ([]target.ProviderTarget, error) {
	opts := metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("spec.nodeName", p.nodeName).String(),
	}
	pods, err := p.clientset.CoreV1().Pods("").List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("kubernetes: listing pods: %w", err)
	}

	var targets []target.ProviderTarget
	for _, pod := range pods.Items {
		if pod.Status.Phase != corev1.PodRunning {
			continue
		}
		slices := []string{"kubepods"}
		if qos := podQOSSlice(pod.Status.QOSClass); qos != "" {
			slices = append(slices, qos)
		}
		slices = append(slices, "pod"+string(pod.UID))

		for i, status := range pod.Status.ContainerStatuses {
			containerID := trimContainerID(status.ContainerID)
			if containerID == "" {
				continue
			}

			path, err := cgroupfs.Resolve(cgroupfs.Slices{
				Cgroupfs: append(append([]string{}, slices...), containerID),
				Systemd:  slices,
			})
			if err != nil {
				continue
			}

			var containerName string
			if i < len(pod.Spec.Containers) {
				containerName = pod.Spec.Containers[i].Name
			}

			targets = append(targets, target.ProviderTarget{
				ID:   containerID,
				Name: pod.Namespace + "/" + pod.Name + "/" + containerName,
				Metadata: map[string]any{
					"Namespace": pod.Namespace,
					"Pod":       pod.Name,
					"Container": containerName,
				},
				Method: target.CollectionMethod{Path: path},
			})
		}
	}
	return targets, nil
}

// podQOSSlice maps a pod's QoS class to the kubelet's slice-name component
// ("" for Guaranteed, which nests directly under kubepods).
func podQOSSlice(qos corev1.PodQOSClass) string {
	switch qos {
	case corev1.PodQOSBurstable:
		return "burstable"
	case corev1.PodQOSBestEffort:
		return "besteffort"
	default:
		return ""
	}
}

// trimContainerID strips the "<runtime>://" prefix kubelet reports
// container IDs with (e.g. "containerd://abc123" -> "abc123").
func trimContainerID(id string) string {
	for i := 0; i+2 < len(id); i++ {
		if id[i] == ':' && id[i+1] == '/' && id[i+2] == '/' {
			return id[i+3:]
		}
	}
	return id
}
